// Package epc decodes Serialised Global Trade Item Numbers (SGTIN) carried in
// RFID tag reads into the GS1 EPC URI forms.
package epc

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	pureURIPrefix  = "urn:epc:id:sgtin:"
	tagURIPrefix   = "urn:epc:tag:"
	sgtin96Header  = 0x30
	sgtin96HexLen  = 24
	gtinDigits     = 13 // company prefix + indicator/item reference
	maxSerialLen   = 20
	serial96Bits   = 38
	partitionBits  = 44 // company prefix + item reference
	maxSerial96Val = uint64(1)<<serial96Bits - 1
)

var (
	ErrMalformed         = errors.New("malformed sgtin")
	ErrUnsupportedScheme = errors.New("unsupported sgtin coding scheme")
	ErrNotEncodable      = errors.New("sgtin not encodable in scheme")
)

// Scheme is a binary coding scheme for SGTIN tags.
type Scheme string

const SchemeSGTIN96 Scheme = "sgtin-96"

// Filter is the 3-bit filter value written in the tag header.
type Filter uint8

const (
	FilterAllOthers Filter = 0
	FilterPOSItem   Filter = 1
	FilterFullCase  Filter = 2
	FilterInnerPack Filter = 4
	FilterUnitLoad  Filter = 6
	FilterComponent Filter = 7
)

type partition struct {
	companyBits   int
	companyDigits int
	itemBits      int
}

var partitions = [7]partition{
	{40, 12, 4},
	{37, 11, 7},
	{34, 10, 10},
	{30, 9, 14},
	{27, 8, 17},
	{24, 7, 20},
	{20, 6, 24},
}

// SGTIN is a decoded tag identity.
type SGTIN struct {
	CompanyPrefix string
	// ItemReference includes the leading indicator digit.
	ItemReference string
	Serial        string
}

// Parse accepts a pure identity URI, an SGTIN-96 tag URI, or the 24-digit
// hex form of an SGTIN-96 tag.
func Parse(raw string) (*SGTIN, error) {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return nil, fmt.Errorf("%w: empty value", ErrMalformed)
	case strings.HasPrefix(value, pureURIPrefix):
		return parseURIBody(strings.TrimPrefix(value, pureURIPrefix))
	case strings.HasPrefix(value, tagURIPrefix):
		return parseTagURI(strings.TrimPrefix(value, tagURIPrefix))
	default:
		return parseHex(value)
	}
}

// PureURI renders the scheme-independent identity URI.
func (s *SGTIN) PureURI() string {
	return fmt.Sprintf("%s%s.%s.%s", pureURIPrefix, s.CompanyPrefix, s.ItemReference, s.Serial)
}

// TagURI renders the binary-encoding tag URI for the given scheme and filter.
func (s *SGTIN) TagURI(scheme Scheme, filter Filter) (string, error) {
	if scheme != SchemeSGTIN96 {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	if filter > 7 {
		return "", fmt.Errorf("%w: filter %d out of range", ErrNotEncodable, filter)
	}
	if _, err := serial96(s.Serial); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s:%d.%s.%s.%s", tagURIPrefix, scheme, filter, s.CompanyPrefix, s.ItemReference, s.Serial), nil
}

func parseURIBody(body string) (*SGTIN, error) {
	parts := strings.Split(body, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 components in %q", ErrMalformed, body)
	}
	sgtin := &SGTIN{CompanyPrefix: parts[0], ItemReference: parts[1], Serial: parts[2]}
	if err := sgtin.validate(); err != nil {
		return nil, err
	}
	return sgtin, nil
}

func parseTagURI(body string) (*SGTIN, error) {
	scheme, rest, ok := strings.Cut(body, ":")
	if !ok {
		return nil, fmt.Errorf("%w: missing scheme in tag uri", ErrMalformed)
	}
	if Scheme(scheme) != SchemeSGTIN96 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	filter, identity, ok := strings.Cut(rest, ".")
	if !ok {
		return nil, fmt.Errorf("%w: missing filter in tag uri", ErrMalformed)
	}
	if f, err := strconv.ParseUint(filter, 10, 8); err != nil || f > 7 {
		return nil, fmt.Errorf("%w: filter %q", ErrMalformed, filter)
	}
	sgtin, err := parseURIBody(identity)
	if err != nil {
		return nil, err
	}
	if _, err := serial96(sgtin.Serial); err != nil {
		return nil, err
	}
	return sgtin, nil
}

func parseHex(value string) (*SGTIN, error) {
	value = strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
	if len(value) != sgtin96HexLen {
		return nil, fmt.Errorf("%w: expected %d hex digits, got %d", ErrMalformed, sgtin96HexLen, len(value))
	}
	buf, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if buf[0] != sgtin96Header {
		return nil, fmt.Errorf("%w: header 0x%02x", ErrUnsupportedScheme, buf[0])
	}

	p := readBits(buf, 11, 3)
	if p >= uint64(len(partitions)) {
		return nil, fmt.Errorf("%w: partition %d", ErrMalformed, p)
	}
	part := partitions[p]
	company := readBits(buf, 14, part.companyBits)
	item := readBits(buf, 14+part.companyBits, part.itemBits)
	serial := readBits(buf, 14+partitionBits, serial96Bits)

	itemDigits := gtinDigits - part.companyDigits
	companyStr, err := padDigits(company, part.companyDigits)
	if err != nil {
		return nil, err
	}
	itemStr, err := padDigits(item, itemDigits)
	if err != nil {
		return nil, err
	}
	return &SGTIN{
		CompanyPrefix: companyStr,
		ItemReference: itemStr,
		Serial:        strconv.FormatUint(serial, 10),
	}, nil
}

func (s *SGTIN) validate() error {
	if !isDigits(s.CompanyPrefix) || len(s.CompanyPrefix) < 6 || len(s.CompanyPrefix) > 12 {
		return fmt.Errorf("%w: company prefix %q", ErrMalformed, s.CompanyPrefix)
	}
	if !isDigits(s.ItemReference) || len(s.CompanyPrefix)+len(s.ItemReference) != gtinDigits {
		return fmt.Errorf("%w: item reference %q", ErrMalformed, s.ItemReference)
	}
	if s.Serial == "" || len(s.Serial) > maxSerialLen*3 {
		return fmt.Errorf("%w: serial %q", ErrMalformed, s.Serial)
	}
	return nil
}

// serial96 checks the numeric-only, no-leading-zero rule for 38-bit serials.
func serial96(serial string) (uint64, error) {
	if !isDigits(serial) || (len(serial) > 1 && serial[0] == '0') {
		return 0, fmt.Errorf("%w: serial %q is not a canonical integer", ErrNotEncodable, serial)
	}
	n, err := strconv.ParseUint(serial, 10, 64)
	if err != nil || n > maxSerial96Val {
		return 0, fmt.Errorf("%w: serial %q exceeds 38 bits", ErrNotEncodable, serial)
	}
	return n, nil
}

func padDigits(v uint64, digits int) (string, error) {
	s := strconv.FormatUint(v, 10)
	if len(s) > digits {
		return "", fmt.Errorf("%w: value %d exceeds %d digits", ErrMalformed, v, digits)
	}
	return strings.Repeat("0", digits-len(s)) + s, nil
}

// readBits returns n (<= 64) bits starting at bit offset, most significant first.
func readBits(buf []byte, offset, n int) uint64 {
	var out uint64
	for i := 0; i < n; i++ {
		bit := offset + i
		out <<= 1
		if buf[bit/8]&(0x80>>(bit%8)) != 0 {
			out |= 1
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
