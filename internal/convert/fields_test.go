package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestFirstString(t *testing.T) {
	r := gjson.Parse(`{"title":"  ","name":"Second","text":"Third","num":12}`)
	got, ok := firstString(r, "title", "name", "text")
	assert.True(t, ok)
	assert.Equal(t, "Second", got)

	got, ok = firstString(r, "num")
	assert.True(t, ok)
	assert.Equal(t, "12", got)

	_, ok = firstString(r, "missing")
	assert.False(t, ok)
}

func TestCompleted(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{`{"completed":true}`, true},
		{`{"done":true}`, true},
		{`{"completed":false,"done":true}`, false},
		{`{"status":"completed"}`, true},
		{`{"status":"Done"}`, true},
		{`{"status":"open"}`, false},
		{`{"checked":1}`, true},
		{`{}`, false},
		{`{"completed":"no","status":"done"}`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, completed(gjson.Parse(tt.src)), tt.src)
	}
}

func TestParseWhen(t *testing.T) {
	tests := []struct {
		src       string
		want      time.Time
		wantClock bool
	}{
		{`"2024-02-03"`, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), false},
		{`"2024-02-03T04:05:06Z"`, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), true},
		{`"2024-02-03 04:05"`, time.Date(2024, 2, 3, 4, 5, 0, 0, time.UTC), true},
		{`{"date":"2024-02-03"}`, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), false},
		{`1706932800`, time.Date(2024, 2, 3, 4, 0, 0, 0, time.UTC), true},
		{`1706932800000`, time.Date(2024, 2, 3, 4, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		got, clock, ok := parseWhen(gjson.Parse(tt.src))
		assert.True(t, ok, tt.src)
		assert.True(t, tt.want.Equal(got), "%s: got %v", tt.src, got)
		assert.Equal(t, tt.wantClock, clock, tt.src)
	}

	for _, src := range []string{`"next tuesday"`, `null`, `-5`, `[1]`} {
		_, _, ok := parseWhen(gjson.Parse(src))
		assert.False(t, ok, src)
	}
}

func TestFirstDate(t *testing.T) {
	d := firstDate(gjson.Parse(`{"due":"bad","deadline":"2024-12-31T23:00:00Z"}`), dueKeys...)
	if assert.NotNil(t, d) {
		assert.Equal(t, "2024-12-31", *d)
	}
	assert.Nil(t, firstDate(gjson.Parse(`{}`), dueKeys...))
}

func TestReference(t *testing.T) {
	id, ok := reference(gjson.Parse(`{"_id":"abc"}`))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	id, ok = reference(gjson.Parse(`17`))
	assert.True(t, ok)
	assert.Equal(t, "17", id)

	_, ok = reference(gjson.Parse(`null`))
	assert.False(t, ok)
}
