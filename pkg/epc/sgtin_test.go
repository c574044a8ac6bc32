package epc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexSGTIN96(t *testing.T) {
	sgtin, err := Parse("3074257BF7194E4000001A85")
	require.NoError(t, err)

	assert.Equal(t, "0614141", sgtin.CompanyPrefix)
	assert.Equal(t, "812345", sgtin.ItemReference)
	assert.Equal(t, "6789", sgtin.Serial)
	assert.Equal(t, "urn:epc:id:sgtin:0614141.812345.6789", sgtin.PureURI())

	tag, err := sgtin.TagURI(SchemeSGTIN96, FilterPOSItem)
	require.NoError(t, err)
	assert.Equal(t, "urn:epc:tag:sgtin-96:1.0614141.812345.6789", tag)
}

func TestParseLowercaseHexWithPrefix(t *testing.T) {
	sgtin, err := Parse("0x3074257bf7194e4000001a85")
	require.NoError(t, err)
	assert.Equal(t, "6789", sgtin.Serial)
}

func TestParsePureIdentityURI(t *testing.T) {
	sgtin, err := Parse("urn:epc:id:sgtin:0614141.112345.400")
	require.NoError(t, err)
	assert.Equal(t, "urn:epc:id:sgtin:0614141.112345.400", sgtin.PureURI())

	tag, err := sgtin.TagURI(SchemeSGTIN96, FilterPOSItem)
	require.NoError(t, err)
	assert.Equal(t, "urn:epc:tag:sgtin-96:1.0614141.112345.400", tag)
}

func TestParseTagURI(t *testing.T) {
	sgtin, err := Parse("urn:epc:tag:sgtin-96:3.0614141.812345.6789")
	require.NoError(t, err)
	assert.Equal(t, "urn:epc:id:sgtin:0614141.812345.6789", sgtin.PureURI())
}

func TestAlphanumericSerialNotEncodableAs96(t *testing.T) {
	sgtin, err := Parse("urn:epc:id:sgtin:0614141.112345.AB12")
	require.NoError(t, err)

	_, err = sgtin.TagURI(SchemeSGTIN96, FilterPOSItem)
	assert.True(t, errors.Is(err, ErrNotEncodable))

	sgtin.Serial = "0123"
	_, err = sgtin.TagURI(SchemeSGTIN96, FilterPOSItem)
	assert.True(t, errors.Is(err, ErrNotEncodable))
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"not-an-epc",
		"3074257BF7194E40",
		"ZZ74257BF7194E4000001A85",
		"urn:epc:id:sgtin:0614141.812345",
		"urn:epc:id:sgtin:061414.812345.1",
		"urn:epc:id:sgtin:06141X1.812345.1",
		"urn:epc:tag:sgtin-96:9.0614141.812345.6789",
		"urn:epc:tag:sgtin-96:1.0614141.812345.AB",
	}
	for _, raw := range cases {
		_, err := Parse(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseRejectsOtherSchemes(t *testing.T) {
	_, err := Parse("3574257BF7194E4000001A85")
	assert.True(t, errors.Is(err, ErrUnsupportedScheme))

	_, err = Parse("urn:epc:tag:sgtin-198:1.0614141.812345.ABC")
	assert.True(t, errors.Is(err, ErrUnsupportedScheme))

	sgtin := &SGTIN{CompanyPrefix: "0614141", ItemReference: "812345", Serial: "1"}
	_, err = sgtin.TagURI(Scheme("sgtin-198"), FilterPOSItem)
	assert.True(t, errors.Is(err, ErrUnsupportedScheme))
}

func TestParseRejectsInvalidPartition(t *testing.T) {
	// header 0x30, filter 1, partition 7
	_, err := Parse("303C257BF7194E4000001A85")
	assert.True(t, errors.Is(err, ErrMalformed))
}
