// Package statementtest generates sample statement files for tests.
package statementtest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"time"
)

type sample struct {
	description string
	category    string
}

var samples = []sample{
	{"UBER EATS* SUSHI", "Food & Drink"},
	{"AMAZON.COM*XYZ", "Shopping"},
	{"WHOLEFDS MKT 10234", "Groceries"},
	{"SPOTIFY USA", "Entertainment"},
	{"SHELL OIL 5744", "Gas"},
	{"ANYTIME FIT", "Health & Wellness"},
	{"PAYMENT THANK YOU", ""},
}

// ChaseCreditCSV returns a Chase credit card export with n rows whose natural keys are all
// distinct. Dates run backwards from end.
func ChaseCreditCSV(rng *rand.Rand, n int, end time.Time) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Memo", "Amount"})
	for i := 0; i < n; i++ {
		s := samples[rng.Intn(len(samples))]
		date := end.AddDate(0, 0, -i/5)
		cents := int64(500 + i*7 + rng.Intn(7))
		typ, sign := "Sale", "-"
		if s.category == "" {
			typ, sign = "Payment", ""
		}
		_ = w.Write([]string{
			date.Format("01/02/2006"),
			date.AddDate(0, 0, 1).Format("01/02/2006"),
			s.description,
			s.category,
			typ,
			"",
			fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100),
		})
	}
	w.Flush()
	return buf.Bytes()
}
