package backupchain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLSN(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "пустая строка", input: "", want: "0"},
		{name: "обычное значение", input: "42000000012300001", want: "42000000012300001"},
		{name: "пробелы", input: "  150 ", want: "150"},
		{name: "numeric с нулевой дробью", input: "150.000", want: "150"},
		{name: "больше uint64", input: "1234567890123456789012345", want: "1234567890123456789012345"},
		{name: "максимум numeric(25,0)", input: "9999999999999999999999999", want: "9999999999999999999999999"},
		{name: "дробная часть", input: "150.5", wantErr: true},
		{name: "знак", input: "-1", wantErr: true},
		{name: "буквы", input: "12a", wantErr: true},
		{name: "переполнение 128 бит", input: "999999999999999999999999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLSN(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestLSN_Cmp(t *testing.T) {
	small := NewLSN(100)
	big := MustParseLSN("18446744073709551616") // 2^64

	assert.Equal(t, -1, small.Cmp(big))
	assert.Equal(t, 1, big.Cmp(small))
	assert.Equal(t, 0, big.Cmp(MustParseLSN("18446744073709551616")))
	assert.True(t, small.Less(big))
	assert.False(t, big.Less(big))
	assert.True(t, LSN{}.IsZero())
	assert.False(t, small.IsZero())
}

func TestLSN_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		L LSN `json:"l"`
	}{L: MustParseLSN("1234567890123456789012345")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"l":"1234567890123456789012345"}`, string(data))

	var fromString, fromNumber, fromNull struct {
		L LSN `json:"l"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"l":"150"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"l":150}`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`{"l":null}`), &fromNull))
	assert.Equal(t, NewLSN(150), fromString.L)
	assert.Equal(t, NewLSN(150), fromNumber.L)
	assert.True(t, fromNull.L.IsZero())
}

func TestLSN_Scan(t *testing.T) {
	var l LSN
	require.NoError(t, l.Scan([]byte("42000000012300001")))
	assert.Equal(t, "42000000012300001", l.String())

	require.NoError(t, l.Scan("7"))
	assert.Equal(t, NewLSN(7), l)

	require.NoError(t, l.Scan(int64(9)))
	assert.Equal(t, NewLSN(9), l)

	require.NoError(t, l.Scan(nil))
	assert.True(t, l.IsZero())

	assert.Error(t, l.Scan(int64(-1)))
	assert.Error(t, l.Scan(3.14))

	v, err := NewLSN(5).Value()
	require.NoError(t, err)
	assert.Equal(t, "5", v)
}
