package configstore

import "fmt"

// VocabTerm is one rendered field/value name under one vocabulary.
type VocabTerm struct {
	Vocab    string `json:"vocab"`
	FieldKey string `json:"field_key"`
	Label    string `json:"label"`
}

// TimeRule describes one of the four time-rule names accepted by `timerule`.
type TimeRule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// OutputBlock describes one `show=` block name and the field keys it expands to.
type OutputBlock struct {
	Name        string   `json:"name"`
	Fields      []string `json:"fields"`
	Description string   `json:"description"`
}

// seedDefaults populates the declarative rows on a fresh database. It is
// idempotent: every insert is INSERT OR IGNORE against a primary key, so
// re-running it against an already-seeded database changes nothing.
func (db *DB) seedDefaults() error {
	vocabDefaults := []VocabTerm{
		{"pbdb", "record_type", "occ"},
		{"neotoma", "record_type", "occurrence"},
		{"com", "record_type", "record_type"},
		{"dwc", "record_type", "basisOfRecord"},
		{"pbdb", "identifier", "occurrence_no"},
		{"neotoma", "identifier", "occid"},
		{"com", "identifier", "id"},
		{"dwc", "identifier", "occurrenceID"},
		{"pbdb", "age_older", "max_ma"},
		{"neotoma", "age_older", "ageold"},
		{"com", "age_older", "age_older"},
		{"dwc", "age_older", "earliestAgeOrLowestStage"},
		{"pbdb", "age_younger", "min_ma"},
		{"neotoma", "age_younger", "ageyoung"},
		{"com", "age_younger", "age_younger"},
		{"dwc", "age_younger", "latestAgeOrHighestStage"},
	}
	for _, t := range vocabDefaults {
		if err := db.putVocabTerm(t); err != nil {
			return err
		}
	}

	ruleDefaults := []TimeRule{
		{"contain", "record's age span must lie entirely within the requested window"},
		{"major", "record's fractional overlap with the window must be at least half its own span"},
		{"buffer", "window is widened by old/young buffer magnitudes before testing containment"},
		{"overlap", "record's age span must merely intersect the requested window"},
	}
	for _, r := range ruleDefaults {
		if err := db.putTimeRule(r); err != nil {
			return err
		}
	}

	blockDefaults := []OutputBlock{
		{"basic", []string{"database", "record_type", "identifier"}, "source tag, record type, and external identifier only"},
		{"age", []string{"age_older", "age_younger"}, "canonical and client-unit age bounds"},
		{"coords", []string{"lng", "lat"}, "midpoint coordinates"},
	}
	for _, b := range blockDefaults {
		if err := db.putOutputBlock(b); err != nil {
			return err
		}
	}

	return nil
}

func (db *DB) putVocabTerm(t VocabTerm) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO vocab_terms (vocab, field_key, label) VALUES (?, ?, ?)`,
		t.Vocab, t.FieldKey, t.Label)
	if err != nil {
		return fmt.Errorf("seed vocab term %s/%s: %w", t.Vocab, t.FieldKey, err)
	}
	return nil
}

func (db *DB) putTimeRule(r TimeRule) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO time_rules (name, description) VALUES (?, ?)`,
		r.Name, r.Description)
	if err != nil {
		return fmt.Errorf("seed time rule %s: %w", r.Name, err)
	}
	return nil
}

func (db *DB) putOutputBlock(b OutputBlock) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO output_blocks (name, fields_csv, description) VALUES (?, ?, ?)`,
		b.Name, joinCSV(b.Fields), b.Description)
	if err != nil {
		return fmt.Errorf("seed output block %s: %w", b.Name, err)
	}
	return nil
}

// VocabTerms returns every rendered field/value name for one vocabulary.
func (db *DB) VocabTerms(vocab string) ([]VocabTerm, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(
		`SELECT vocab, field_key, label FROM vocab_terms WHERE vocab = ? ORDER BY field_key`, vocab)
	if err != nil {
		return nil, fmt.Errorf("query vocab terms: %w", err)
	}
	defer rows.Close()

	var out []VocabTerm
	for rows.Next() {
		var t VocabTerm
		if err := rows.Scan(&t.Vocab, &t.FieldKey, &t.Label); err != nil {
			return nil, fmt.Errorf("scan vocab term: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TimeRules returns every declared time rule.
func (db *DB) TimeRules() ([]TimeRule, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`SELECT name, description FROM time_rules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query time rules: %w", err)
	}
	defer rows.Close()

	var out []TimeRule
	for rows.Next() {
		var r TimeRule
		if err := rows.Scan(&r.Name, &r.Description); err != nil {
			return nil, fmt.Errorf("scan time rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// OutputBlocks returns every declared `show=` block.
func (db *DB) OutputBlocks() ([]OutputBlock, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`SELECT name, fields_csv, description FROM output_blocks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query output blocks: %w", err)
	}
	defer rows.Close()

	var out []OutputBlock
	for rows.Next() {
		var name, fieldsCSV, desc string
		if err := rows.Scan(&name, &fieldsCSV, &desc); err != nil {
			return nil, fmt.Errorf("scan output block: %w", err)
		}
		out = append(out, OutputBlock{Name: name, Fields: splitCSV(fieldsCSV), Description: desc})
	}
	return out, rows.Err()
}

func joinCSV(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
