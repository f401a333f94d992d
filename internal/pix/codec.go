// internal/pix/codec.go

// Package pix implements the transferable payment payload codec.
//
// The wire format follows the EMV "BR Code" shape used by pix copy-and-paste
// codes: a flat sequence of tag-length-value fields (two-digit tag, two-digit
// zero-padded length, value), a nested merchant-account-information field
// carrying the pix key, and a CRC-16/CCITT-FALSE trailer that covers the whole
// code including the CRC tag and length themselves. Decode is the exact
// inverse of Encode for any payload Encode produces; amounts are carried as
// fixed two-decimal strings so no floating-point drift can occur.
package pix

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pixbank/internal/domain"
	"pixbank/internal/util"
)

const (
	tagPayloadFormat  = "00"
	tagMerchantInfo   = "26"
	tagCategoryCode   = "52"
	tagCurrency       = "53"
	tagAmount         = "54"
	tagCountry        = "58"
	tagReceiverName   = "59"
	tagCRC            = "63"
	tagGUI            = "00" // nested under tagMerchantInfo
	tagPixKey         = "01" // nested under tagMerchantInfo
	tagDescription    = "02" // nested under tagMerchantInfo
	payloadFormatRepr = "01"
	pixGUI            = "br.gov.bcb.pix"
	categoryCodeRepr  = "0000"
	currencyBRL       = "986" // ISO 4217 numeric code
	countryBR         = "BR"
)

// maxFieldLen is the largest value an EMV two-digit length can express.
const maxFieldLen = 99

// Encode serializes a payload into a transferable pix code.
// The amount must be positive and the receiver key and name non-empty.
func Encode(p *domain.PixPayload) (string, error) {
	if p.PixKey == "" {
		return "", fmt.Errorf("encode: missing pix key: %w", util.ErrInvalidInput)
	}
	if p.ReceiverName == "" {
		return "", fmt.Errorf("encode: missing receiver name: %w", util.ErrInvalidInput)
	}
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("encode: non-positive amount: %w", util.ErrInvalidAmount)
	}

	merchant, err := encodeMerchantInfo(p)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, f := range []struct{ tag, value string }{
		{tagPayloadFormat, payloadFormatRepr},
		{tagMerchantInfo, merchant},
		{tagCategoryCode, categoryCodeRepr},
		{tagCurrency, currencyBRL},
		{tagAmount, p.Amount.StringFixed(2)},
		{tagCountry, countryBR},
		{tagReceiverName, p.ReceiverName},
	} {
		tlv, err := encodeField(f.tag, f.value)
		if err != nil {
			return "", err
		}
		b.WriteString(tlv)
	}

	// The CRC covers everything written so far plus its own tag and length.
	b.WriteString(tagCRC + "04")
	code := b.String()
	return code + fmt.Sprintf("%04X", crc16(code)), nil
}

func encodeMerchantInfo(p *domain.PixPayload) (string, error) {
	var b strings.Builder
	for _, f := range []struct{ tag, value string }{
		{tagGUI, pixGUI},
		{tagPixKey, p.PixKey},
	} {
		tlv, err := encodeField(f.tag, f.value)
		if err != nil {
			return "", err
		}
		b.WriteString(tlv)
	}
	if p.Description != "" {
		tlv, err := encodeField(tagDescription, p.Description)
		if err != nil {
			return "", err
		}
		b.WriteString(tlv)
	}
	return b.String(), nil
}

func encodeField(tag, value string) (string, error) {
	if len(value) == 0 || len(value) > maxFieldLen {
		return "", fmt.Errorf("encode: field %s length %d out of range: %w", tag, len(value), util.ErrInvalidInput)
	}
	return fmt.Sprintf("%s%02d%s", tag, len(value), value), nil
}

// Decode parses a transferable pix code back into its payload.
// Structurally invalid input, an unknown GUI, a missing required field or a
// checksum mismatch all yield util.ErrMalformedPixCode.
func Decode(rawCode string) (*domain.PixPayload, error) {
	if err := verifyCRC(rawCode); err != nil {
		return nil, err
	}

	fields, err := parseTLV(rawCode)
	if err != nil {
		return nil, err
	}
	if fields[tagPayloadFormat] != payloadFormatRepr {
		return nil, fmt.Errorf("unsupported payload format %q: %w", fields[tagPayloadFormat], util.ErrMalformedPixCode)
	}
	if fields[tagCurrency] != currencyBRL {
		return nil, fmt.Errorf("unsupported currency %q: %w", fields[tagCurrency], util.ErrMalformedPixCode)
	}

	merchant, err := parseTLV(fields[tagMerchantInfo])
	if err != nil {
		return nil, err
	}
	if merchant[tagGUI] != pixGUI {
		return nil, fmt.Errorf("unknown merchant GUI %q: %w", merchant[tagGUI], util.ErrMalformedPixCode)
	}
	key := merchant[tagPixKey]
	if key == "" {
		return nil, fmt.Errorf("missing pix key: %w", util.ErrMalformedPixCode)
	}

	amountStr := fields[tagAmount]
	if amountStr == "" {
		return nil, fmt.Errorf("missing amount: %w", util.ErrMalformedPixCode)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("invalid amount %q: %w", amountStr, util.ErrMalformedPixCode)
	}

	name := fields[tagReceiverName]
	if name == "" {
		return nil, fmt.Errorf("missing receiver name: %w", util.ErrMalformedPixCode)
	}

	return &domain.PixPayload{
		PixKey:       key,
		ReceiverName: name,
		Amount:       amount,
		Description:  merchant[tagDescription],
		RawCode:      rawCode,
	}, nil
}

// verifyCRC checks that the code ends with a "6304XXXX" trailer whose
// checksum matches the rest of the code.
func verifyCRC(rawCode string) error {
	if len(rawCode) < 8 {
		return fmt.Errorf("code too short: %w", util.ErrMalformedPixCode)
	}
	trailer := rawCode[len(rawCode)-8:]
	if !strings.HasPrefix(trailer, tagCRC+"04") {
		return fmt.Errorf("missing crc trailer: %w", util.ErrMalformedPixCode)
	}
	want, err := strconv.ParseUint(trailer[4:], 16, 16)
	if err != nil {
		return fmt.Errorf("invalid crc value: %w", util.ErrMalformedPixCode)
	}
	if crc16(rawCode[:len(rawCode)-4]) != uint16(want) {
		return fmt.Errorf("crc mismatch: %w", util.ErrMalformedPixCode)
	}
	return nil
}

// parseTLV splits a flat tag-length-value sequence into a tag → value map.
// The trailing CRC field, when present, is parsed like any other field.
func parseTLV(data string) (map[string]string, error) {
	fields := make(map[string]string)
	for i := 0; i < len(data); {
		if i+4 > len(data) {
			return nil, fmt.Errorf("truncated field header at offset %d: %w", i, util.ErrMalformedPixCode)
		}
		tag := data[i : i+2]
		length, err := strconv.Atoi(data[i+2 : i+4])
		if err != nil || length < 0 {
			return nil, fmt.Errorf("invalid length for tag %s: %w", tag, util.ErrMalformedPixCode)
		}
		if i+4+length > len(data) {
			return nil, fmt.Errorf("truncated value for tag %s: %w", tag, util.ErrMalformedPixCode)
		}
		fields[tag] = data[i+4 : i+4+length]
		i += 4 + length
	}
	return fields, nil
}

// crc16 computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF) over data.
func crc16(data string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
