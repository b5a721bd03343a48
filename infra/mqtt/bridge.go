package mqtt

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/events"
	"github.com/voltplan/voltplan/core/model"
	coremqtt "github.com/voltplan/voltplan/core/mqtt"
	"github.com/voltplan/voltplan/infra/logger"
	"github.com/voltplan/voltplan/internal/eventbus"
)

// ActionBridge turns published plans into actions for provider adapters.
// It subscribes to the event bus and emits a plan_updated action per plan.
type ActionBridge struct {
	pub      coremqtt.Publisher
	provider string
	log      logger.Logger
}

// NewActionBridge creates a bridge emitting actions for the named provider.
func NewActionBridge(pub coremqtt.Publisher, provider string) *ActionBridge {
	return &ActionBridge{pub: pub, provider: provider, log: logger.New("action-bridge")}
}

// Run consumes bus events until the context is canceled.
func (b *ActionBridge) Run(ctx context.Context, bus eventbus.EventBus) {
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if pu, ok := ev.(events.PlanUpdated); ok {
				b.publishPlan(pu)
			}
		}
	}
}

func (b *ActionBridge) publishPlan(ev events.PlanUpdated) {
	data, err := json.Marshal(struct {
		Plan        model.ChargePlan `json:"plan"`
		SmartStatus string           `json:"smartStatus"`
	}{ev.Plan, ev.SmartStatus})
	if err != nil {
		b.log.Errorf("encode plan action: %v", err)
		return
	}
	a := model.Action{
		ActionID:     uuid.NewString(),
		TargetID:     ev.VehicleID.String(),
		ProviderName: b.provider,
		Action:       model.ActionPlanUpdated,
		Data:         data,
	}
	if err := b.pub.PublishAction(a); err != nil {
		b.log.Errorf("publish plan action: %v", err)
	}
}
