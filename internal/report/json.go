package report

import (
	"encoding/json"
	"io"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
	"github.com/guillermoBallester/dataprofiler/internal/core/service"
)

// JSON writes indented documents, one per call.
type JSON struct{}

func (JSON) Profile(w io.Writer, p *domain.TableProfile) error { return encode(w, p) }
func (JSON) Diff(w io.Writer, d service.TableDrift) error      { return encode(w, d) }

func (JSON) Overflow(w io.Writer, forecasts []domain.OverflowForecast) error {
	if forecasts == nil {
		forecasts = []domain.OverflowForecast{}
	}
	return encode(w, forecasts)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
