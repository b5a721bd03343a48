// Package prediction forecasts when a parked vehicle will next disconnect
// and how much charge the following cycle will consume. Predictions are
// derived from past connection behaviour at the same location; a vehicle
// with too little history yields no prediction and the planner falls back to
// its learning mode.
package prediction
