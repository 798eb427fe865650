package forecast

import "demand-forecast-engine/dataset"

// Dashboard KPIs assembled from recent history and a short-horizon forecast.

// AvgDailySales is the recent average with its change vs the prior window
type AvgDailySales struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
	Unit   string  `json:"unit"`
}

// ForecastAccuracy is a coefficient-of-variation proxy for accuracy
type ForecastAccuracy struct {
	Value float64 `json:"value"`
	MAPE  float64 `json:"mape"`
	Unit  string  `json:"unit"`
}

// DemandOutlook is the summed short-horizon demand forecast
type DemandOutlook struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Label string  `json:"label"`
}

// StockCover estimates how many days current inventory lasts
type StockCover struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Status string  `json:"status"`
}

// KPIs is the dashboard KPI block
type KPIs struct {
	AvgDailySales    AvgDailySales    `json:"avg_daily_sales"`
	ForecastAccuracy ForecastAccuracy `json:"forecast_accuracy"`
	Next7DayDemand   DemandOutlook    `json:"next_7day_demand"`
	DaysOfStock      StockCover       `json:"days_of_stock"`
}

const (
	kpiWindowDays     = 30
	kpiOutlookDays    = 7
	kpiInventoryDays  = 10 // assumed days of on-hand inventory
	kpiLowStockCutoff = 5.0
)

// KPIs computes dashboard KPIs for one product over the trailing 30 days,
// comparing against the 30 days before that. Like everything in this
// package it never fails; empty history yields zeroed KPIs.
func (e *Engine) KPIs(product string) KPIs {
	recent := e.store.Window(kpiWindowDays, 0, product)
	previous := e.store.Window(kpiWindowDays, kpiWindowDays, product)

	var change float64
	if previous.Mean > 0 {
		change = (recent.Mean - previous.Mean) / previous.Mean * 100
	}

	// MAPE proxy: coefficient of variation of the recent window.
	var mape float64
	if recent.Mean > 0 {
		mape = recent.Std / recent.Mean * 100
	}
	accuracy := 100 - mape
	if accuracy < 0 {
		accuracy = 0
	}

	// Short-horizon demand from the engine itself; the fallback path keeps
	// this populated even without a model.
	var demand float64
	for _, rec := range e.Forecast(kpiOutlookDays, product, dataset.DefaultStore).Records {
		demand += rec.Prediction
	}

	// Simplified stock model: assume a fixed number of days of inventory
	// on hand at the recent consumption rate.
	inventory := recent.Mean * kpiInventoryDays
	daysOfStock := 0.0
	if recent.Mean > 0 {
		daysOfStock = inventory / recent.Mean
	}
	status := "Healthy"
	if daysOfStock < kpiLowStockCutoff {
		status = "Low Stock"
	}

	return KPIs{
		AvgDailySales: AvgDailySales{
			Value:  round2(recent.Mean),
			Change: round2(change),
			Unit:   "kg",
		},
		ForecastAccuracy: ForecastAccuracy{
			Value: round2(accuracy),
			MAPE:  round2(mape),
			Unit:  "%",
		},
		Next7DayDemand: DemandOutlook{
			Value: round2(demand),
			Unit:  "kg",
			Label: "Predicted",
		},
		DaysOfStock: StockCover{
			Value:  round2(daysOfStock),
			Unit:   "days",
			Status: status,
		},
	}
}
