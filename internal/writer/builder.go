// internal/writer/builder.go
package writer

import (
	"time"

	cfg "github.com/tamzrod/med-dispenser/internal/config"
	wmodbus "github.com/tamzrod/med-dispenser/internal/writer/modbus"
)

// BuildPlan converts the dispenser config into an output Plan.
// Assumes config has already passed Validate and Normalize.
func BuildPlan(d cfg.DispenserConfig) Plan {
	var plan Plan

	if d.IO != nil {
		plan.Indicators = &IndicatorPlan{
			Endpoint: d.IO.Endpoint,
			UnitID:   d.IO.UnitID,
			BaseCoil: d.IO.IndicatorCoil,
		}
	}

	if d.Status != nil {
		plan.Status = &StatusPlan{
			Endpoint:   d.Status.Endpoint,
			UnitID:     d.Status.UnitID,
			BaseSlot:   d.Status.BaseSlot,
			DeviceName: d.Status.DeviceName,
		}
	}

	return plan
}

// BuildEndpointClients creates one TCP client per unique endpoint.
func BuildEndpointClients(plan Plan, timeout time.Duration) (map[string]*wmodbus.EndpointClient, func() error, error) {
	clients := make(map[string]*wmodbus.EndpointClient)
	var closers []func() error

	for _, endpoint := range plan.Endpoints() {
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  timeout,
		})
		if err != nil {
			for _, fn := range closers {
				_ = fn()
			}
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	return clients, closeAll, nil
}
