package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Doctor is a single roster entry. The roster is loaded once at startup and
// is read-only afterwards, so it is safe for concurrent use.
type Doctor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// Roster is the static department -> doctors directory used for routing.
type Roster struct {
	doctors     []Doctor
	departments map[string][]Doctor
	deptOrder   []string
}

// Load reads the doctor roster from a CSV file with columns
// onehat_doctor_id, Doctor Name, Department.
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read roster csv: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("roster csv %s is empty", path)
	}

	header := map[string]int{}
	for i, col := range rows[0] {
		header[strings.TrimSpace(col)] = i
	}
	idIdx, ok := header["onehat_doctor_id"]
	if !ok {
		return nil, fmt.Errorf("roster csv missing onehat_doctor_id column")
	}
	nameIdx, ok := header["Doctor Name"]
	if !ok {
		return nil, fmt.Errorf("roster csv missing Doctor Name column")
	}
	deptIdx, ok := header["Department"]
	if !ok {
		return nil, fmt.Errorf("roster csv missing Department column")
	}

	r := &Roster{departments: make(map[string][]Doctor)}
	for _, row := range rows[1:] {
		if len(row) <= deptIdx || len(row) <= nameIdx || len(row) <= idIdx {
			continue
		}
		d := Doctor{
			ID:         strings.TrimSpace(row[idIdx]),
			Name:       strings.TrimSpace(row[nameIdx]),
			Department: strings.TrimSpace(row[deptIdx]),
		}
		if d.Name == "" || d.Department == "" {
			continue
		}
		r.add(d)
	}
	return r, nil
}

// New builds a roster from an in-memory department -> doctors mapping.
// Used by tests and deployments that load staff data from elsewhere.
func New(byDepartment map[string][]Doctor) *Roster {
	r := &Roster{departments: make(map[string][]Doctor)}
	for dept, doctors := range byDepartment {
		for _, d := range doctors {
			if d.Department == "" {
				d.Department = dept
			}
			r.add(d)
		}
	}
	return r
}

func (r *Roster) add(d Doctor) {
	r.doctors = append(r.doctors, d)
	if _, seen := r.departments[d.Department]; !seen {
		r.deptOrder = append(r.deptOrder, d.Department)
	}
	r.departments[d.Department] = append(r.departments[d.Department], d)
}

// Departments returns all department names in load order.
func (r *Roster) Departments() []string {
	out := make([]string, len(r.deptOrder))
	copy(out, r.deptOrder)
	return out
}

// DoctorsIn returns all doctors in a department. The department name must be
// canonical (as returned by Departments or MatchDepartment).
func (r *Roster) DoctorsIn(department string) []Doctor {
	src := r.departments[department]
	out := make([]Doctor, len(src))
	copy(out, src)
	return out
}

// FindDoctorByName finds a doctor by exact case-insensitive name match.
func (r *Roster) FindDoctorByName(name string) (Doctor, bool) {
	for _, d := range r.doctors {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Doctor{}, false
}

// HasDepartment reports whether a department exists, case-insensitively.
func (r *Roster) HasDepartment(department string) bool {
	for dept := range r.departments {
		if strings.EqualFold(dept, department) {
			return true
		}
	}
	return false
}

// specialtySynonyms maps common specialty phrasings to canonical department
// names. Lookups are case-insensitive; a mapped department is only returned
// when it exists in the loaded roster.
var specialtySynonyms = []struct {
	keyword    string
	department string
}{
	{"orthopedic", "Orthopedics"},
	{"orthopedics", "Orthopedics"},
	{"ortho", "Orthopedics"},
	{"cardiac", "Cardiology"},
	{"cardiology", "Cardiology"},
	{"heart", "Cardiology"},
	{"diabetes", "Diabetologist"},
	{"diabetologist", "Diabetologist"},
	{"endocrine", "Diabetologist"},
	{"pediatric", "Pediatrics"},
	{"pediatrics", "Pediatrics"},
	{"children", "Pediatrics"},
	{"urology", "Urology"},
	{"kidney", "Urology"},
	{"general medicine", "General Medicine"},
	{"general", "General Medicine"},
	{"internal medicine", "General Medicine"},
	{"internal", "General Medicine"},
}

// MatchDepartment resolves a free-text AI department suggestion to a
// canonical roster department. Resolution order: exact match, synonym table
// exact match, synonym substring containment, then a conservative prefix
// match. A miss is a valid business outcome (route to reception), not an
// error.
func (r *Roster) MatchDepartment(aiSuggested string) (string, bool) {
	suggested := strings.ToLower(strings.TrimSpace(aiSuggested))
	if suggested == "" {
		return "", false
	}

	for dept := range r.departments {
		if strings.ToLower(dept) == suggested {
			return dept, true
		}
	}

	for _, syn := range specialtySynonyms {
		if suggested == syn.keyword {
			if _, ok := r.departments[syn.department]; ok {
				return syn.department, true
			}
		}
	}

	for _, syn := range specialtySynonyms {
		if containsKeyword(suggested, syn.keyword) {
			if _, ok := r.departments[syn.department]; ok {
				return syn.department, true
			}
		}
	}

	// Prefix match only when the suggestion barely extends the department
	// name. The length guard keeps "Neurology" from landing on "Urology"
	// style cross-matches via longer compounds; it is a heuristic, not a
	// guarantee.
	for dept := range r.departments {
		deptLower := strings.ToLower(dept)
		if strings.HasPrefix(suggested, deptLower) && len(suggested)-len(deptLower) <= 3 {
			return dept, true
		}
	}

	return "", false
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// containsKeyword reports whether keyword occurs in text starting at a
// word boundary. The keyword may continue into a longer word, so
// "orthopedist" still matches the "orthopedic" keyword, but plain
// substring containment is out: it would route "neurology" to Urology
// via the "urology" keyword.
func containsKeyword(text, keyword string) bool {
	padded := " " + nonAlnumRe.ReplaceAllString(text, " ") + " "
	return strings.Contains(padded, " "+keyword)
}
