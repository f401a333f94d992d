// internal/pix/codec_test.go
package pix

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixbank/internal/domain"
	"pixbank/internal/util"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		payload domain.PixPayload
	}{
		{
			name: "EmailKeyWithDescription",
			payload: domain.PixPayload{
				PixKey:       "maria@example.com",
				ReceiverName: "Maria Souza",
				Amount:       decimal.NewFromFloat(200.00),
				Description:  "dinner split",
			},
		},
		{
			name: "RandomKeyNoDescription",
			payload: domain.PixPayload{
				PixKey:       "7d9f0335-8c19-4b1a-9d55-2e6a0f6d9c11",
				ReceiverName: "Joao Lima",
				Amount:       decimal.NewFromFloat(0.01),
			},
		},
		{
			name: "PhoneKeyLargeAmount",
			payload: domain.PixPayload{
				PixKey:       "+5511987654321",
				ReceiverName: "Ana Pereira",
				Amount:       decimal.NewFromFloat(1234567.89),
				Description:  "invoice 42",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rawCode, err := Encode(&tc.payload)
			require.NoError(t, err)

			decoded, err := Decode(rawCode)
			require.NoError(t, err)

			assert.Equal(t, tc.payload.PixKey, decoded.PixKey)
			assert.Equal(t, tc.payload.ReceiverName, decoded.ReceiverName)
			assert.Equal(t, tc.payload.Description, decoded.Description)
			assert.Equal(t, rawCode, decoded.RawCode)
			// Fixed-point exactness: the amount must survive without drift.
			assert.True(t, tc.payload.Amount.Equal(decoded.Amount),
				"amount drifted: want %s got %s", tc.payload.Amount, decoded.Amount)
			assert.Equal(t, tc.payload.Amount.StringFixed(2), decoded.Amount.StringFixed(2))
		})
	}
}

func TestEncodeValidation(t *testing.T) {
	t.Run("MissingKey", func(t *testing.T) {
		_, err := Encode(&domain.PixPayload{ReceiverName: "X", Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})

	t.Run("MissingReceiverName", func(t *testing.T) {
		_, err := Encode(&domain.PixPayload{PixKey: "a@b.c", Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		_, err := Encode(&domain.PixPayload{PixKey: "a@b.c", ReceiverName: "X", Amount: decimal.Zero})
		assert.ErrorIs(t, err, util.ErrInvalidAmount)
	})

	t.Run("FieldTooLong", func(t *testing.T) {
		_, err := Encode(&domain.PixPayload{
			PixKey:       "a@b.c",
			ReceiverName: "X",
			Amount:       decimal.NewFromInt(1),
			Description:  strings.Repeat("x", 100),
		})
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})
}

func TestDecodeRejectsTamperedCode(t *testing.T) {
	payload := &domain.PixPayload{
		PixKey:       "maria@example.com",
		ReceiverName: "Maria Souza",
		Amount:       decimal.NewFromFloat(50.00),
	}
	rawCode, err := Encode(payload)
	require.NoError(t, err)

	t.Run("BodyTampered", func(t *testing.T) {
		// Change one amount digit; the CRC no longer matches.
		tampered := strings.Replace(rawCode, "50.00", "90.00", 1)
		require.NotEqual(t, rawCode, tampered)
		_, err := Decode(tampered)
		assert.ErrorIs(t, err, util.ErrMalformedPixCode)
	})

	t.Run("CRCTampered", func(t *testing.T) {
		tampered := rawCode[:len(rawCode)-4] + "0000"
		_, err := Decode(tampered)
		assert.ErrorIs(t, err, util.ErrMalformedPixCode)
	})
}

func TestDecodeMalformed(t *testing.T) {
	// Build structurally valid codes with a correct CRC but bad content.
	withCRC := func(body string) string {
		code := body + "6304"
		return code + crcHex(code)
	}

	testCases := []struct {
		name string
		code string
	}{
		{"Empty", ""},
		{"TooShort", "6304"},
		{"NoCRCTrailer", "000201999999999999"},
		{"NonNumericLength", withCRC("00xx01")},
		{"TruncatedValue", withCRC("0099a")},
		{"WrongGUI", withCRC("000201" + "2628" + "0016com.example.fake" + "0104akey" + "5303986" + "540510.00" + "5904Name")},
		{"MissingAmount", withCRC("000201" + "2636" + "0014br.gov.bcb.pix" + "0114maria@mail.com" + "5303986" + "5904Name")},
		{"InvalidAmount", withCRC("000201" + "2636" + "0014br.gov.bcb.pix" + "0114maria@mail.com" + "5303986" + "5405ab.cd" + "5904Name")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.code)
			assert.ErrorIs(t, err, util.ErrMalformedPixCode)
		})
	}
}

// crcHex mirrors the trailer Encode appends, for building test fixtures.
func crcHex(data string) string {
	const hexDigits = "0123456789ABCDEF"
	crc := crc16(data)
	return string([]byte{
		hexDigits[crc>>12&0xF], hexDigits[crc>>8&0xF], hexDigits[crc>>4&0xF], hexDigits[crc&0xF],
	})
}

func TestCRC16KnownVector(t *testing.T) {
	// CRC-16/CCITT-FALSE check value from the standard test string.
	assert.Equal(t, uint16(0x29B1), crc16("123456789"))
}
