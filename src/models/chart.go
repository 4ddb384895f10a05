package models

import "time"

// ValidChartTypes is the closed set of chart renderings the dashboard knows
// how to draw.
var ValidChartTypes = []string{
	"line",
	"bar",
	"pie",
	"area",
	"step_line",
	"spline",
	"sparkline",
	"simple_bar",
	"grouped_bar",
	"stacked_bar",
	"donut",
	"treemap",
	"histogram",
	"box_plot",
	"scatter_plot",
	"heatmap",
	"calendar_heatmap",
	"waterfall",
	"spider",
}

// IsValidChartType reports whether t is one of ValidChartTypes.
func IsValidChartType(t string) bool {
	for _, v := range ValidChartTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DashboardChart is a saved dashboard card configuration.
type DashboardChart struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ChartType string    `json:"chart_type"`
	Features  []string  `json:"features"`
	Visible   bool      `json:"visible"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DashboardChartPayload is the client-supplied body for chart create/update.
// Pointer fields distinguish "absent" from zero values on partial updates.
type DashboardChartPayload struct {
	Name      *string   `json:"name"`
	ChartType *string   `json:"chart_type"`
	Features  *[]string `json:"features"`
	Visible   *bool     `json:"visible"`
	Order     *int      `json:"order"`
}
