package evidence

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/homesense/internal/model"
)

// Permit is one building permit normalized from a permits payload. Date
// fields keep their raw text; PermitDate decides which one is usable.
type Permit struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Type        string   `json:"type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Status      string   `json:"status,omitempty"`
	Value       *float64 `json:"value,omitempty"`
	IssueDate   string   `json:"issue_date,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	FileDate    string   `json:"file_date,omitempty"`
}

// Text returns the folded text used for classification: description, type
// and tags joined.
func (p Permit) Text() string {
	parts := append([]string{p.Description, p.Type}, p.Tags...)
	return foldText(strings.Join(parts, " "))
}

var permitListPaths = []string{"permits", "data.permits", "results", "data.results", "data", "items"}

var (
	permitIDPaths     = []string{"id", "permit_id", "permitNumber", "permit_number", "number"}
	permitDescPaths   = []string{"description", "desc", "work_description", "workDescription", "job_description", "scope"}
	permitTypePaths   = []string{"type", "permit_type", "permitType", "work_class", "category"}
	permitTagPaths    = []string{"tags", "system_tags", "systems", "tags_array"}
	permitStatusPaths = []string{"status", "permit_status", "statusCurrent"}
	permitValuePaths  = []string{"job_value", "jobValue", "valuation", "value", "declared_valuation", "fees.valuation"}
	permitIssuePaths  = []string{"issue_date", "issued_date", "issueDate", "issued"}
	permitStartPaths  = []string{"start_date", "startDate"}
	permitEndPaths    = []string{"end_date", "final_date", "completed_date", "endDate"}
	permitFilePaths   = []string{"file_date", "filing_date", "applied_date", "application_date", "fileDate"}
)

// ExtractPermits parses a permits payload. The permit list may sit under one
// of several keys or be the top-level array.
func ExtractPermits(payload json.RawMessage) ([]Permit, error) {
	if !gjson.ValidBytes(payload) {
		return nil, eris.New("evidence: permits payload is not valid json")
	}
	root := gjson.ParseBytes(payload)

	list := root
	if !root.IsArray() {
		list = gjson.Result{}
		for _, p := range permitListPaths {
			if r := root.Get(p); r.IsArray() {
				list = r
				break
			}
		}
	}
	if !list.IsArray() {
		return nil, nil
	}

	var permits []Permit
	for _, item := range list.Array() {
		if !item.IsObject() {
			continue
		}
		permits = append(permits, Permit{
			ID:          firstString(item, permitIDPaths...),
			Description: firstString(item, permitDescPaths...),
			Type:        firstString(item, permitTypePaths...),
			Tags:        stringList(item, permitTagPaths...),
			Status:      firstString(item, permitStatusPaths...),
			Value:       firstFloat(item, permitValuePaths...),
			IssueDate:   firstString(item, permitIssuePaths...),
			StartDate:   firstString(item, permitStartPaths...),
			EndDate:     firstString(item, permitEndPaths...),
			FileDate:    firstString(item, permitFilePaths...),
		})
	}
	return permits, nil
}

// CollectPermits gathers permits from every permits snapshot, newest
// snapshot first, dropping duplicates by permit id (or description and dates
// when a permit has no id). Unparseable snapshots are logged and skipped.
func CollectPermits(snapshots []model.EnrichmentSnapshot) []Permit {
	seen := make(map[string]bool)
	var out []Permit
	for _, snap := range model.SnapshotsFor(snapshots, model.ProviderPermits) {
		permits, err := ExtractPermits(snap.Payload)
		if err != nil {
			zap.L().Warn("evidence: skipping permits snapshot",
				zap.String("snapshot_id", snap.ID),
				zap.Error(err),
			)
			continue
		}
		for _, p := range permits {
			key := p.ID
			if key == "" {
				key = p.Text() + "|" + p.IssueDate + "|" + p.StartDate + "|" + p.FileDate
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, p)
		}
	}
	return out
}
