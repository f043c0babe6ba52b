package statement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chaseCreditHeader = []string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Memo", "Amount"}

func TestBuiltinsValidate(t *testing.T) {
	for _, f := range Builtins() {
		require.NoError(t, f.Validate(), f.Name)
	}
}

func TestFormatValidate(t *testing.T) {
	base := Format{
		Name:    "Amex",
		Headers: []string{"Date", "Description", "Amount"},
		Fields:  FieldMap{Date: "Date", Amount: "Amount", Description: "Description"},
	}
	require.NoError(t, base.Validate())

	noName := base
	noName.Name = " "
	assert.Error(t, noName.Validate())

	noAmount := base
	noAmount.Fields.Amount = ""
	assert.ErrorContains(t, noAmount.Validate(), "amount")

	unmapped := base
	unmapped.Fields.Category = "Category"
	assert.ErrorContains(t, unmapped.Validate(), "not in headers")

	dup := base
	dup.Headers = []string{"Date", "date ", "Description", "Amount"}
	assert.ErrorContains(t, dup.Validate(), "duplicate header")
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := DefaultRegistry()

	f, ok := r.Lookup("chasecreditcard")
	require.True(t, ok)
	assert.Equal(t, ChaseCreditCard, f.Name)

	_, ok = r.Lookup("Amex")
	assert.False(t, ok)

	err := r.Register(Builtins()[0])
	assert.ErrorContains(t, err, "duplicate statement format")

	names := make([]string, 0)
	for _, f := range r.Formats() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{ChaseCreditCard, ChaseChecking, Generic}, names)
}

func TestDetect_Builtins(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		name   string
		header []string
		want   string
	}{
		{"chase credit", chaseCreditHeader, ChaseCreditCard},
		{"chase credit reordered with extras", []string{"\ufeffamount", " MEMO", "Type", "Category", "Description", "Post Date", "Transaction  Date", "Reference"}, ChaseCreditCard},
		{"chase checking", []string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"}, ChaseChecking},
		{"generic", []string{"Transaction Date", "Amount", "Category", "Subcategory", "Description"}, Generic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := r.Detect(tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Format.Name)
			assert.Empty(t, m.Tied)
		})
	}
}

func TestDetect_MostSpecificWins(t *testing.T) {
	mini := Format{
		Name:    "Mini",
		Headers: []string{"Transaction Date", "Description", "Amount"},
		Fields:  FieldMap{Date: "Transaction Date", Amount: "Amount", Description: "Description"},
	}
	r, err := NewRegistry(append([]Format{mini}, Builtins()...)...)
	require.NoError(t, err)

	m, err := r.Detect(chaseCreditHeader)
	require.NoError(t, err)
	assert.Equal(t, ChaseCreditCard, m.Format.Name)

	m, err = r.Detect([]string{"Transaction Date", "Description", "Amount", "Balance"})
	require.NoError(t, err)
	assert.Equal(t, "Mini", m.Format.Name)
}

func TestDetect_TieGoesToRegistrationOrder(t *testing.T) {
	first := Format{
		Name:    "First",
		Headers: []string{"Date", "Description", "Amount"},
		Fields:  FieldMap{Date: "Date", Amount: "Amount", Description: "Description"},
	}
	second := first
	second.Name = "Second"

	r, err := NewRegistry(first, second)
	require.NoError(t, err)

	m, err := r.Detect([]string{"Date", "Description", "Amount"})
	require.NoError(t, err)
	assert.Equal(t, "First", m.Format.Name)
	assert.Equal(t, []string{"Second"}, m.Tied)
}

func TestDetect_UnknownFormat(t *testing.T) {
	r := DefaultRegistry()
	header := []string{"Transaction Date", "Post Date", "Descripton", "Category", "Type", "Memo", "Amount"}

	_, err := r.Detect(header)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	var ufe *UnknownFormatError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, ChaseCreditCard, ufe.Closest)
	assert.Equal(t, []string{"Description"}, ufe.Missing)
	assert.Equal(t, []string{"Descripton"}, ufe.Extra)
	assert.Equal(t, map[string]string{"Description": "Descripton"}, ufe.Suggestions)
	assert.Contains(t, err.Error(), `"Descripton" looks like "Description"`)
	assert.Contains(t, err.Error(), `unexpected "Descripton"`)
}

func TestCheckHeader(t *testing.T) {
	checking := Builtins()[1]

	require.NoError(t, CheckHeader(checking, []string{
		"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #", "Extra",
	}))

	err := CheckHeader(checking, chaseCreditHeader)
	require.ErrorIs(t, err, ErrUnknownFormat)
	var ufe *UnknownFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, ChaseChecking, ufe.Closest)
	assert.ElementsMatch(t, []string{"Details", "Posting Date", "Balance", "Check or Slip #"}, ufe.Missing)
	assert.ElementsMatch(t, []string{"Transaction Date", "Post Date", "Category", "Memo"}, ufe.Extra)
	assert.Contains(t, err.Error(), `missing "Balance"`)
}

func TestDetect_UnknownFormat_NoSuggestionForDistantHeaders(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Detect([]string{"Foo", "Bar"})
	var ufe *UnknownFormatError
	require.True(t, errors.As(err, &ufe))
	assert.NotEmpty(t, ufe.Closest)
	assert.Empty(t, ufe.Suggestions)
	assert.ElementsMatch(t, []string{"Foo", "Bar"}, ufe.Extra)
}

func TestDetect_EmptyRegistry(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.Detect(chaseCreditHeader)
	require.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, "unknown statement format", err.Error())
}

func TestDefinitionRoundTrip(t *testing.T) {
	f := Builtins()[1]
	data, err := f.MarshalDefinition()
	require.NoError(t, err)

	got, err := UnmarshalDefinition(data)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	_, err = UnmarshalDefinition([]byte(`{"name":"Broken","headers":["Date"]}`))
	assert.Error(t, err)
}
