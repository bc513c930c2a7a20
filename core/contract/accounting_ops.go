package contract

import (
	"encoding/json"
	"strconv"

	"ccsledger/core/accounting"
)

func (c *Contract) registerAccountingOps() {
	c.register(&Operation{
		Name:     "calculateCarbonStored",
		ReadOnly: true,
		MinArgs:  2,
		Handler: func(tx *Tx, args []string) (interface{}, error) {
			return accounting.DailyNet(tx, args[0], args[1], tx.Ctx.TimestampString())
		},
	})
	c.register(&Operation{
		Name:    "monthlyCO2Stored",
		MinArgs: 3,
		Handler: func(tx *Tx, args []string) (interface{}, error) {
			key, agg, err := accounting.FinalizeMonth(tx, args[0], args[1], args[2],
				tx.Ctx.Caller.ID, tx.Ctx.TimestampString())
			if err != nil {
				return nil, err
			}
			aggBytes, err := json.Marshal(agg)
			if err != nil {
				return nil, err
			}
			// Overwrite-on-re-finalize: same key, freshly computed value.
			tx.PutState(key, aggBytes)
			tx.SetEvent("MonthlyFinalized", map[string]string{
				"projectId": agg.ProjectID,
				"period":    key,
				"total":     strconv.FormatFloat(agg.TotalNetCarbonCaptured, 'f', -1, 64),
			})
			return agg, nil
		},
	})
	c.register(&Operation{
		Name:    "annualCO2Stored",
		MinArgs: 2,
		Handler: func(tx *Tx, args []string) (interface{}, error) {
			key, agg, err := accounting.FinalizeYear(tx, args[0], args[1],
				tx.Ctx.Caller.ID, tx.Ctx.TimestampString())
			if err != nil {
				return nil, err
			}
			aggBytes, err := json.Marshal(agg)
			if err != nil {
				return nil, err
			}
			tx.PutState(key, aggBytes)
			tx.SetEvent("AnnualFinalized", map[string]string{
				"projectId": agg.ProjectID,
				"period":    key,
				"total":     strconv.FormatFloat(agg.TotalNetCarbonCaptured, 'f', -1, 64),
			})
			return agg, nil
		},
	})
}
