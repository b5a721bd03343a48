// Package mqtt defines the action egress channel. The control plane only
// emits actions; provider adapters subscribe and enact them.
package mqtt

import "github.com/voltplan/voltplan/core/model"

// Publisher delivers actions to provider adapters.
type Publisher interface {
	// PublishAction emits one action on the provider's topic.
	PublishAction(a model.Action) error
	Close()
}
