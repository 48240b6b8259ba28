package writer

// IndicatorPlan locates the compartment indicator coils.
// Compartment c drives coil BaseCoil+c.
type IndicatorPlan struct {
	Endpoint string
	UnitID   uint8
	BaseCoil uint16
}

// StatusPlan locates the dispenser status block.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built output plan. Nil members are disabled.
type Plan struct {
	Indicators *IndicatorPlan
	Status     *StatusPlan
}

// Endpoints lists the unique endpoints the plan writes to.
func (p Plan) Endpoints() []string {
	var out []string
	seen := map[string]bool{}
	add := func(ep string) {
		if !seen[ep] {
			seen[ep] = true
			out = append(out, ep)
		}
	}
	if p.Indicators != nil {
		add(p.Indicators.Endpoint)
	}
	if p.Status != nil {
		add(p.Status.Endpoint)
	}
	return out
}
