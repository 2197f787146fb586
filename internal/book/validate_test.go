package book

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"bookcatalog/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationDetails(t *testing.T, err error) []httpx.ErrorDetail {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Details
}

func TestDecodeInput(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in, err := DecodeInput(strings.NewReader(`{"title":"Dune","author":"Frank Herbert","genre":"Sci-Fi","year":1965,"rating":4.5,"extra":true}`))
		require.NoError(t, err)
		assert.Equal(t, Input{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Year: 1965, Rating: 4.5}, in)
	})

	t.Run("zero values are present values", func(t *testing.T) {
		in, err := DecodeInput(strings.NewReader(`{"title":"","author":"","genre":"","year":0,"rating":0}`))
		require.NoError(t, err)
		assert.Equal(t, Input{}, in)
	})

	t.Run("integer rating is accepted", func(t *testing.T) {
		in, err := DecodeInput(strings.NewReader(`{"title":"T","author":"A","genre":"G","year":-50,"rating":5}`))
		require.NoError(t, err)
		assert.Equal(t, int64(-50), in.Year)
		assert.Equal(t, 5.0, in.Rating)
	})

	t.Run("every missing field is reported", func(t *testing.T) {
		details := validationDetails(t, decodeErr(`{}`))
		require.Len(t, details, 5)
		var locs []string
		for _, d := range details {
			assert.Equal(t, "value_error.missing", d.Type)
			locs = append(locs, strings.Join(d.Loc, "."))
		}
		assert.ElementsMatch(t, []string{"body.title", "body.author", "body.genre", "body.year", "body.rating"}, locs)
	})

	t.Run("null counts as missing", func(t *testing.T) {
		details := validationDetails(t, decodeErr(`{"title":null,"author":"A","genre":"G","year":1,"rating":1}`))
		require.Len(t, details, 1)
		assert.Equal(t, []string{"body", "title"}, details[0].Loc)
	})

	t.Run("wrong type", func(t *testing.T) {
		details := validationDetails(t, decodeErr(`{"title":"T","author":"A","genre":"G","year":1965,"rating":"high"}`))
		require.Len(t, details, 1)
		assert.Equal(t, httpx.ErrorDetail{
			Loc:  []string{"body", "rating"},
			Msg:  "value is not a valid float",
			Type: "type_error.float",
		}, details[0])
	})

	t.Run("fractional year", func(t *testing.T) {
		details := validationDetails(t, decodeErr(`{"title":"T","author":"A","genre":"G","year":19.5,"rating":1}`))
		require.Len(t, details, 1)
		assert.Equal(t, "type_error.integer", details[0].Type)
	})

	t.Run("not an object", func(t *testing.T) {
		details := validationDetails(t, decodeErr(`[1,2]`))
		require.Len(t, details, 1)
		assert.Equal(t, "type_error.dict", details[0].Type)
	})

	t.Run("empty body", func(t *testing.T) {
		details := validationDetails(t, decodeErr(``))
		require.Len(t, details, 1)
		assert.Equal(t, []string{"body"}, details[0].Loc)
		assert.Equal(t, "value_error.missing", details[0].Type)
	})

	t.Run("malformed json", func(t *testing.T) {
		for _, body := range []string{`{"title":`, `{title}`} {
			details := validationDetails(t, decodeErr(body))
			require.Len(t, details, 1)
			assert.Equal(t, "value_error.jsondecode", details[0].Type)
		}
	})

	t.Run("every mistyped field is reported", func(t *testing.T) {
		details := validationDetails(t, decodeErr(`{"title":1,"author":"A","genre":"G","year":"x","rating":"y"}`))
		require.Len(t, details, 3)
		assert.Equal(t, []string{"body", "title"}, details[0].Loc)
		assert.Equal(t, "type_error.str", details[0].Type)
		assert.Equal(t, []string{"body", "year"}, details[1].Loc)
		assert.Equal(t, "type_error.integer", details[1].Type)
		assert.Equal(t, []string{"body", "rating"}, details[2].Loc)
		assert.Equal(t, "type_error.float", details[2].Type)
	})

	t.Run("mistyped and missing fields together", func(t *testing.T) {
		details := validationDetails(t, decodeErr(`{"title":true,"year":1}`))
		var locs []string
		for _, d := range details {
			locs = append(locs, strings.Join(d.Loc, ".")+" "+d.Type)
		}
		assert.ElementsMatch(t, []string{
			"body.title type_error.str",
			"body.author value_error.missing",
			"body.genre value_error.missing",
			"body.rating value_error.missing",
		}, locs)
	})

	t.Run("trailing data after the object", func(t *testing.T) {
		valid := `{"title":"T","author":"A","genre":"G","year":1,"rating":1}`
		for _, body := range []string{valid + ` garbage`, valid + ` {}`, valid + `}`, valid + valid} {
			details := validationDetails(t, decodeErr(body))
			require.Len(t, details, 1, body)
			assert.Equal(t, []string{"body"}, details[0].Loc)
			assert.Equal(t, "value_error.jsondecode", details[0].Type)
		}
	})

	t.Run("trailing whitespace is fine", func(t *testing.T) {
		_, err := DecodeInput(strings.NewReader(`{"title":"T","author":"A","genre":"G","year":1,"rating":1}` + "\n\t "))
		assert.NoError(t, err)
	})

	t.Run("null body", func(t *testing.T) {
		details := validationDetails(t, decodeErr(`null`))
		require.Len(t, details, 1)
		assert.Equal(t, []string{"body"}, details[0].Loc)
		assert.Equal(t, "value_error.missing", details[0].Type)
	})

	t.Run("years beyond 32 bits", func(t *testing.T) {
		in, err := DecodeInput(strings.NewReader(`{"title":"T","author":"A","genre":"G","year":3000000000,"rating":1}`))
		require.NoError(t, err)
		assert.Equal(t, int64(3000000000), in.Year)

		details := validationDetails(t, decodeErr(`{"title":"T","author":"A","genre":"G","year":9223372036854775808,"rating":1}`))
		require.Len(t, details, 1)
		assert.Equal(t, []string{"body", "year"}, details[0].Loc)
		assert.Equal(t, "type_error.integer", details[0].Type)
	})
}

func TestDraft_Input(t *testing.T) {
	title, author, genre := "Dune", "Frank Herbert", "Sci-Fi"
	year, rating := int64(1965), 4.5

	in, err := Draft{Title: &title, Author: &author, Genre: &genre, Year: &year, Rating: &rating}.Input("books")
	require.NoError(t, err)
	assert.Equal(t, Input{Title: title, Author: author, Genre: genre, Year: year, Rating: rating}, in)

	_, err = Draft{Title: &title, Author: &author, Genre: &genre}.Input("books")
	details := validationDetails(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, []string{"books", "year"}, details[0].Loc)
	assert.Equal(t, []string{"books", "rating"}, details[1].Loc)
	assert.Equal(t, "value_error.missing", details[0].Type)
}

func decodeErr(body string) error {
	_, err := DecodeInput(strings.NewReader(body))
	return err
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"abc", "1.5", ""} {
		details := validationDetails(t, func() error { _, err := ParseID(raw); return err }())
		assert.Equal(t, []string{"path", "book_id"}, details[0].Loc)
	}
}

func TestParseSearch(t *testing.T) {
	term, err := ParseSearch(url.Values{"search": {"Dune"}})
	require.NoError(t, err)
	assert.Equal(t, "Dune", term)

	term, err = ParseSearch(url.Values{"search": {""}})
	require.NoError(t, err)
	assert.Empty(t, term)

	_, err = ParseSearch(url.Values{})
	details := validationDetails(t, err)
	assert.Equal(t, []string{"query", "search"}, details[0].Loc)
}

func TestParseYearRange(t *testing.T) {
	years, err := ParseYearRange(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, years.Min)
	assert.Nil(t, years.Max)
	assert.Equal(t, "[*, *]", years.String())

	years, err = ParseYearRange(url.Values{"min": {"1950"}, "max": {"1970"}})
	require.NoError(t, err)
	require.NotNil(t, years.Min)
	require.NotNil(t, years.Max)
	assert.Equal(t, int64(1950), *years.Min)
	assert.Equal(t, int64(1970), *years.Max)
	assert.Equal(t, "[1950, 1970]", years.String())

	years, err = ParseYearRange(url.Values{"min": {"3000000000"}})
	require.NoError(t, err)
	require.NotNil(t, years.Min)
	assert.Equal(t, int64(3000000000), *years.Min)

	_, err = ParseYearRange(url.Values{"max": {"9223372036854775808"}})
	details := validationDetails(t, err)
	assert.Equal(t, []string{"query", "max"}, details[0].Loc)

	_, err = ParseYearRange(url.Values{"min": {"x"}, "max": {"y"}})
	details = validationDetails(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, []string{"query", "min"}, details[0].Loc)
	assert.Equal(t, []string{"query", "max"}, details[1].Loc)
}
