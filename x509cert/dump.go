package x509cert

import (
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
)

// Dump writes an indented tree rendering of arbitrary DER data to w. It is
// a debugging aid for the inspect command; nothing in the proof pipeline
// depends on it.
func Dump(w io.Writer, data []byte) error {
	values, err := decodeSiblings(data)
	if err != nil {
		return fmt.Errorf("failed to parse ASN.1: %w", err)
	}
	for i, v := range values {
		dumpTree(w, v, "", i == len(values)-1)
	}
	return nil
}

func decodeSiblings(data []byte) ([]asn1.RawValue, error) {
	var values []asn1.RawValue
	for len(data) > 0 {
		var v asn1.RawValue
		rest, err := asn1.Unmarshal(data, &v)
		if err != nil {
			return values, err
		}
		values = append(values, v)
		data = rest
	}
	return values, nil
}

func dumpTree(w io.Writer, v asn1.RawValue, indent string, isLast bool) {
	prefix := indent
	if indent != "" {
		if isLast {
			prefix += "└─ "
		} else {
			prefix += "├─ "
		}
	} else {
		prefix = "* "
	}

	if content := renderValue(v); content != "" {
		fmt.Fprintf(w, "%s%s %s\n", prefix, tagName(v.Tag, v.Class), content)
	} else {
		fmt.Fprintf(w, "%s%s\n", prefix, tagName(v.Tag, v.Class))
	}

	if v.IsCompound || v.Tag == asn1.TagSequence || v.Tag == asn1.TagSet || v.Class == asn1.ClassContextSpecific {
		children, err := decodeSiblings(v.Bytes)
		if err != nil || len(children) == 0 {
			return
		}
		newIndent := indent
		if indent != "" {
			if isLast {
				newIndent += "   "
			} else {
				newIndent += "│  "
			}
		}
		for i, child := range children {
			dumpTree(w, child, newIndent, i == len(children)-1)
		}
	}
}

func tagName(tag, class int) string {
	switch class {
	case asn1.ClassContextSpecific:
		return fmt.Sprintf("[%d]", tag)
	case asn1.ClassApplication:
		return fmt.Sprintf("[APPLICATION %d]", tag)
	case asn1.ClassPrivate:
		return fmt.Sprintf("[PRIVATE %d]", tag)
	}

	switch tag {
	case asn1.TagBoolean:
		return "BOOLEAN"
	case asn1.TagInteger:
		return "INTEGER"
	case asn1.TagBitString:
		return "BIT STRING"
	case asn1.TagOctetString:
		return "OCTET STRING"
	case asn1.TagNull:
		return "NULL"
	case asn1.TagOID:
		return "OBJECT IDENTIFIER"
	case asn1.TagEnum:
		return "ENUMERATED"
	case asn1.TagUTF8String:
		return "UTF8String"
	case asn1.TagSequence:
		return "SEQUENCE"
	case asn1.TagSet:
		return "SET"
	case asn1.TagNumericString:
		return "NumericString"
	case asn1.TagPrintableString:
		return "PrintableString"
	case asn1.TagIA5String:
		return "IA5String"
	case asn1.TagUTCTime:
		return "UTCTime"
	case asn1.TagGeneralizedTime:
		return "GeneralizedTime"
	default:
		return fmt.Sprintf("[UNIVERSAL %d]", tag)
	}
}

func renderValue(v asn1.RawValue) string {
	if v.IsCompound {
		children, _ := decodeSiblings(v.Bytes)
		return fmt.Sprintf("(%d elem)", len(children))
	}

	switch v.Tag {
	case asn1.TagBoolean:
		var b bool
		asn1.Unmarshal(v.FullBytes, &b)
		return fmt.Sprintf("%v", b)

	case asn1.TagInteger:
		if len(v.Bytes) == 0 {
			return "0"
		}
		num := new(big.Int).SetBytes(v.Bytes)
		if v.Bytes[0]&0x80 != 0 {
			num.Sub(num, new(big.Int).Lsh(big.NewInt(1), uint(len(v.Bytes)*8)))
		}
		if len(v.Bytes) <= 8 {
			return num.String()
		}
		preview := hex.EncodeToString(v.Bytes[:min(8, len(v.Bytes))])
		return fmt.Sprintf("(%d bit) %s…", len(v.Bytes)*8, preview)

	case asn1.TagBitString:
		var bs asn1.BitString
		if _, err := asn1.Unmarshal(v.FullBytes, &bs); err != nil {
			return "(invalid bit string)"
		}
		preview := hex.EncodeToString(bs.Bytes[:min(8, len(bs.Bytes))])
		if len(bs.Bytes) > 8 {
			preview += "…"
		}
		return fmt.Sprintf("(%d bit) %s", bs.BitLength, preview)

	case asn1.TagOctetString:
		if len(v.Bytes) == 0 {
			return "(0 byte)"
		}
		preview := strings.ToUpper(hex.EncodeToString(v.Bytes[:min(16, len(v.Bytes))]))
		if len(v.Bytes) > 16 {
			preview += "…"
		}
		return fmt.Sprintf("(%d byte) %s", len(v.Bytes), preview)

	case asn1.TagNull:
		return ""

	case asn1.TagOID:
		var oid asn1.ObjectIdentifier
		if _, err := asn1.Unmarshal(v.FullBytes, &oid); err != nil {
			return "(invalid OID)"
		}
		if name, ok := oidDescriptions[oid.String()]; ok {
			return fmt.Sprintf("%s %s", oid, name)
		}
		return oid.String()

	case asn1.TagPrintableString, asn1.TagIA5String, asn1.TagUTF8String,
		asn1.TagNumericString, asn1.TagGeneralString:
		s := string(v.Bytes)
		if len(s) > 64 {
			s = s[:64] + "…"
		}
		return s

	case asn1.TagUTCTime, asn1.TagGeneralizedTime:
		var t time.Time
		if _, err := asn1.Unmarshal(v.FullBytes, &t); err == nil {
			return t.Format("2006-01-02 15:04:05 MST")
		}
		return string(v.Bytes)

	default:
		if len(v.Bytes) <= 32 {
			return strings.ToUpper(hex.EncodeToString(v.Bytes))
		}
		return fmt.Sprintf("(%d bytes)", len(v.Bytes))
	}
}
