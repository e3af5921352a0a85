package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"hr-insights-go/internal/types"
)

// UnknownError labels ERROR records that carry no comment.
const UnknownError = "Unknown error"

const (
	errorLabelMax = 60
	errorLabelCut = 57
)

// systemCodePrefixes mark machine-generated comments of the form "SYS-12: text".
var systemCodePrefixes = []string{"SYS", "BUS"}

// exitReasons maps SGK exit-reason codes to their official labels.
var exitReasons = map[string]string{
	"01": "Deneme süreli iş sözl. işverence feshi",
	"02": "Deneme süreli iş sözl. işçi tarafından feshi",
	"03": "Belirsiz süreli iş sözl. işçi tarafından feshi (istifa)",
	"04": "Belirsiz süreli iş sözl. işveren tarafından haklı sebep bildirilmeden feshi",
	"05": "Belirli süreli iş sözleşmesinin sona ermesi",
	"08": "Emeklilik (yaşlılık) veya toptan ödeme",
	"09": "Malulen emeklilik",
	"10": "Ölüm",
	"12": "Askerlik",
	"13": "Kadın işçinin evlenmesi",
	"14": "Emeklilik için yaş dışında diğer şartların tamamlanması",
	"16": "Sözleşme sona ermeden sigortalının aynı işverene ait diğer işyerine nakli",
	"17": "İşyerinin kapanması",
	"18": "İşin sona ermesi",
	"22": "Diğer nedenler",
	"25": "İşçi tarafından zorunlu nedenle fesih",
	"27": "İşveren tarafından zorunlu nedenle fesih",
	"28": "İşveren tarafından sendikal nedenle fesih",
	"44": "İşveren tarafından 4857/25-II ile fesih",
	"45": "İşçi tarafından 4857/24-II ile fesih",
	"46": "Belirli süreli iş sözleşmesinin işveren tarafından feshi",
	"48": "Toplu işçi çıkarma",
	"49": "Fazla çalışmaya onay vermeme nedeniyle fesih",
	"50": "İşyeri devri nedeniyle fesih",
}

// stripCodePrefix drops a leading "code." when the dot is neither first nor last.
func stripCodePrefix(s string) string {
	t := strings.TrimSpace(s)
	i := strings.Index(t, ".")
	if i > 0 && i < len(t)-1 {
		return strings.TrimSpace(t[i+1:])
	}
	return t
}

// CleanDepartman turns "12. Human Resources" into "Human Resources".
func CleanDepartman(raw string) string {
	if raw == "" {
		return ""
	}
	return stripCodePrefix(raw)
}

// CleanPozisyon is CleanDepartman plus removal of one trailing dot.
func CleanPozisyon(raw string) string {
	if raw == "" {
		return ""
	}
	c := stripCodePrefix(raw)
	if strings.HasSuffix(c, ".") {
		c = strings.TrimSpace(c[:len(c)-1])
	}
	return c
}

// ClassifyError groups a free-text error comment into a short label for ranking.
func ClassifyError(comment string) string {
	s := strings.TrimSpace(comment)
	if s == "" {
		return UnknownError
	}
	for _, p := range systemCodePrefixes {
		if !strings.HasPrefix(s, p) {
			continue
		}
		if idx := strings.Index(s, ":"); idx != -1 {
			return strings.TrimSpace(s[idx+1:])
		}
		return s
	}
	if i := strings.Index(s, ". "); i != -1 && utf8.RuneCountInString(s[:i]) < errorLabelMax {
		return s[:i+1]
	}
	if utf8.RuneCountInString(s) > errorLabelMax {
		return string([]rune(s)[:errorLabelCut]) + "..."
	}
	return s
}

// NormalizeStatus maps the exporter's status spellings onto COMPLETED / ERROR.
func NormalizeStatus(raw string) string {
	s := strings.TrimSpace(raw)
	switch strings.ToUpper(s) {
	case "SUCCESS", types.StatusCompleted:
		return types.StatusCompleted
	case types.StatusError:
		return types.StatusError
	}
	return s
}

// ExitReasonLabel resolves an SGK exit-reason code. Unknown codes pass through.
func ExitReasonLabel(code string) string {
	c := strings.TrimSpace(code)
	if c == "" {
		return ""
	}
	if len(c) == 1 && c[0] >= '0' && c[0] <= '9' {
		c = "0" + c
	}
	if label, ok := exitReasons[c]; ok {
		return label
	}
	return strings.TrimSpace(code)
}

// ParseDuration coerces a duration field; anything unusable becomes 0.
func ParseDuration(v any) float64 {
	var f float64
	switch d := v.(type) {
	case float64:
		f = d
	case int:
		f = float64(d)
	case int64:
		f = float64(d)
	case json.Number:
		n, err := d.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(d), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// NormalizeRecord derives the clean fields of one raw record.
func NormalizeRecord(r types.Record) types.NormalizedRecord {
	departman := r.Text("departman")
	pozisyon := r.Text("pozisyon")
	code := r.Str("cikis_nedeni")
	return types.NormalizedRecord{
		Status:         NormalizeStatus(r.Str("status")),
		Duration:       ParseDuration(r["duration_sec"]),
		DateKey:        strings.TrimSpace(r.Text("date_key")),
		Departman:      departman,
		DepartmanClean: CleanDepartman(departman),
		Pozisyon:       pozisyon,
		PozisyonClean:  CleanPozisyon(pozisyon),
		Isyeri:         strings.TrimSpace(r.Text("isyeri")),
		ErrorComment:   r.Text("error_comment"),
		CikisNedeni:    code,
		ExitReason:     ExitReasonLabel(code),
	}
}

// Normalize cleans a batch. Nil records are skipped, nothing aborts the batch.
func Normalize(records []types.Record) []types.NormalizedRecord {
	out := make([]types.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		out = append(out, NormalizeRecord(r))
	}
	return out
}
