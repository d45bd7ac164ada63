package workflow

import (
	"sort"
	"strings"
	"time"

	"github.com/indusops/opsdesk/internal/models"
)

// StageIndex is the position of ft in SDO < JDO < Commercial < PN, or -1
func StageIndex(ft models.ProjectFormType) int {
	for i, s := range models.ProjectFormTypes {
		if s == ft {
			return i
		}
	}
	return -1
}

// ProjectProgress is where one project stands in the stage sequence
type ProjectProgress struct {
	Key         string                   `json:"key"`
	ProjectName string                   `json:"projectName"`
	ClientName  string                   `json:"clientName,omitempty"`
	BookingNo   string                   `json:"bookingNo,omitempty"`
	Current     models.ProjectFormType   `json:"current"`
	Next        models.ProjectFormType   `json:"next,omitempty"`
	Completed   []models.ProjectFormType `json:"completed"`
	Missing     []models.ProjectFormType `json:"missing,omitempty"`
	Complete    bool                     `json:"complete"`
	FormIDs     map[string]int64         `json:"formIds"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

func projectKey(f models.ProjectForm) string {
	if k := strings.ToLower(strings.TrimSpace(f.BookingNo)); k != "" {
		return "booking:" + k
	}
	if k := strings.ToLower(strings.Join(strings.Fields(f.ProjectName), " ")); k != "" {
		return "project:" + k
	}
	return ""
}

// Timeline groups forms by project (booking number, else project name) and
// works out each project's stage. Forms of an unknown type or with no key
// are ignored. Most recently updated projects come first.
func Timeline(forms []models.ProjectForm) []ProjectProgress {
	byKey := map[string]*ProjectProgress{}
	present := map[string][]bool{}
	var order []string

	for _, f := range forms {
		idx := StageIndex(f.FormType)
		key := projectKey(f)
		if idx < 0 || key == "" {
			continue
		}
		p, ok := byKey[key]
		if !ok {
			p = &ProjectProgress{Key: key, FormIDs: map[string]int64{}}
			byKey[key] = p
			present[key] = make([]bool, len(models.ProjectFormTypes))
			order = append(order, key)
		}
		if p.ProjectName == "" {
			p.ProjectName = f.ProjectName
		}
		if p.ClientName == "" {
			p.ClientName = f.ClientName
		}
		if p.BookingNo == "" {
			p.BookingNo = f.BookingNo
		}
		present[key][idx] = true
		if existing, seen := p.FormIDs[string(f.FormType)]; !seen || f.FormID > existing {
			p.FormIDs[string(f.FormType)] = f.FormID
		}
		if f.CreatedAt.After(p.UpdatedAt) {
			p.UpdatedAt = f.CreatedAt
		}
	}

	out := make([]ProjectProgress, 0, len(order))
	for _, key := range order {
		p := byKey[key]
		has := present[key]
		last := -1
		for i, ok := range has {
			if ok {
				p.Completed = append(p.Completed, models.ProjectFormTypes[i])
				last = i
			}
		}
		for i := 0; i < last; i++ {
			if !has[i] {
				p.Missing = append(p.Missing, models.ProjectFormTypes[i])
			}
		}
		p.Current = models.ProjectFormTypes[last]
		if last+1 < len(models.ProjectFormTypes) {
			p.Next = models.ProjectFormTypes[last+1]
		} else {
			p.Complete = true
		}
		out = append(out, *p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Key < out[j].Key
	})
	return out
}
