// Package export renders a charge plan for humans and spreadsheets.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/voltplan/voltplan/core/model"
)

// WriteJSON writes the plan to w in JSON format.
func WriteJSON(w io.Writer, plan model.ChargePlan) error {
	return json.NewEncoder(w).Encode(plan)
}

// WriteCSV writes the plan to w with one row per segment. Open bounds are
// rendered as "now" and "done".
func WriteCSV(w io.Writer, plan model.ChargePlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"charge_start", "charge_stop", "level", "charge_type", "comment"}); err != nil {
		return err
	}
	for _, s := range plan {
		start := "now"
		if s.ChargeStart != nil {
			start = s.ChargeStart.Format(time.RFC3339)
		}
		stop := "done"
		if s.ChargeStop != nil {
			stop = s.ChargeStop.Format(time.RFC3339)
		}
		rec := []string{start, stop, strconv.Itoa(s.Level), string(s.ChargeType), s.Comment}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
