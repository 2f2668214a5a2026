package backupchain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// LSN — номер записи журнала транзакций SQL Server.
// В msdb хранится как numeric(25,0), поэтому не помещается в uint64:
// значение хранится как беззнаковое 128-битное число (hi:lo).
// Нулевое значение означает «LSN не задан».
type LSN struct {
	hi uint64
	lo uint64
}

// NewLSN создаёт LSN из 64-битного значения.
func NewLSN(v uint64) LSN {
	return LSN{lo: v}
}

// ParseLSN разбирает десятичное представление LSN.
// Пустая строка даёт нулевой LSN. Допускаются только цифры
// (numeric(25,0) не имеет дробной части и знака).
func ParseLSN(s string) (LSN, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LSN{}, nil
	}
	// go-mssqldb отдаёт numeric как "123.0" при ненулевом scale
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if strings.Trim(s[i+1:], "0") != "" {
			return LSN{}, fmt.Errorf("LSN %q содержит дробную часть", s)
		}
		s = s[:i]
	}

	var hi, lo uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return LSN{}, fmt.Errorf("LSN %q содержит недопустимый символ %q", s, c)
		}
		// (hi:lo) * 10
		hhi, hlo := bits.Mul64(hi, 10)
		lhi, llo := bits.Mul64(lo, 10)
		if hhi != 0 {
			return LSN{}, fmt.Errorf("LSN %q превышает 128 бит", s)
		}
		var carry uint64
		hi, carry = bits.Add64(hlo, lhi, 0)
		if carry != 0 {
			return LSN{}, fmt.Errorf("LSN %q превышает 128 бит", s)
		}
		// + цифра
		lo, carry = bits.Add64(llo, uint64(c-'0'), 0)
		hi, carry = bits.Add64(hi, 0, carry)
		if carry != 0 {
			return LSN{}, fmt.Errorf("LSN %q превышает 128 бит", s)
		}
	}
	return LSN{hi: hi, lo: lo}, nil
}

// MustParseLSN — ParseLSN с паникой при ошибке. Для констант и тестов.
func MustParseLSN(s string) LSN {
	l, err := ParseLSN(s)
	if err != nil {
		panic(err)
	}
	return l
}

// IsZero сообщает, что LSN не задан.
func (l LSN) IsZero() bool {
	return l.hi == 0 && l.lo == 0
}

// Cmp сравнивает два LSN: -1 если l < o, 0 если равны, +1 если l > o.
func (l LSN) Cmp(o LSN) int {
	switch {
	case l.hi < o.hi:
		return -1
	case l.hi > o.hi:
		return 1
	case l.lo < o.lo:
		return -1
	case l.lo > o.lo:
		return 1
	}
	return 0
}

// Less возвращает true, если l < o.
func (l LSN) Less(o LSN) bool { return l.Cmp(o) < 0 }

// String возвращает десятичное представление LSN.
func (l LSN) String() string {
	if l.hi == 0 {
		return strconv.FormatUint(l.lo, 10)
	}
	var buf [40]byte
	i := len(buf)
	hi, lo := l.hi, l.lo
	for hi != 0 || lo != 0 {
		var rem uint64
		hi, rem = hi/10, hi%10
		lo, rem = bits.Div64(rem, lo, 10)
		i--
		buf[i] = byte('0' + rem)
	}
	return string(buf[i:])
}

// MarshalText реализует encoding.TextMarshaler (JSON/YAML выводят LSN строкой).
func (l LSN) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (l *LSN) UnmarshalText(text []byte) error {
	v, err := ParseLSN(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// UnmarshalJSON принимает LSN и строкой, и числом: выгрузки msdb
// через FOR JSON отдают numeric без кавычек.
func (l *LSN) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = LSN{}
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	return l.UnmarshalText([]byte(s))
}

// Scan реализует sql.Scanner для чтения numeric(25,0) из msdb.
func (l *LSN) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = LSN{}
		return nil
	case []byte:
		return l.UnmarshalText(v)
	case string:
		return l.UnmarshalText([]byte(v))
	case int64:
		if v < 0 {
			return fmt.Errorf("отрицательный LSN %d", v)
		}
		*l = NewLSN(uint64(v))
		return nil
	default:
		return fmt.Errorf("неподдерживаемый тип LSN %T", src)
	}
}

// Value реализует driver.Valuer: LSN передаётся в запрос строкой.
func (l LSN) Value() (driver.Value, error) {
	return l.String(), nil
}
