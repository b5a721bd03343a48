// Package events defines the planning related events emitted on the event bus.
//
// Available event types:
//   - ReplanRequested: a vehicle needs a fresh charge plan
//   - PlanUpdated: a reconciled plan was published on the vehicle row
//   - ConnectionClosed: a charger was detached at a known location
//   - PriceListUpdated: a price feed delivered new hour points
package events
