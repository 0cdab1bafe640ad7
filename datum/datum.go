// Package datum encodes dataset records in the wire format of Caffe's Datum
// protobuf message, so the store can be fed to an unmodified training
// pipeline:
//
//	message Datum {
//	  optional int32 channels = 1;
//	  optional int32 height = 2;
//	  optional int32 width = 3;
//	  optional bytes data = 4;
//	  optional int32 label = 5;
//	  repeated float float_data = 6;
//	  optional bool encoded = 7 [default = false];
//	}
package datum

import (
	"bmpconverter/types"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldChannels  protowire.Number = 1
	fieldHeight    protowire.Number = 2
	fieldWidth     protowire.Number = 3
	fieldData      protowire.Number = 4
	fieldLabel     protowire.Number = 5
	fieldFloatData protowire.Number = 6
	fieldEncoded   protowire.Number = 7
)

// Marshal serializes r as a Datum.
func Marshal(r types.Record) ([]byte, error) {
	if want := r.Channels * r.Height * r.Width; len(r.Pixels) != want {
		return nil, errors.Errorf("record has %d pixel bytes, want %d", len(r.Pixels), want)
	}
	if r.Label == types.NoLabel {
		return nil, errors.New("record has no label")
	}

	b := make([]byte, 0, len(r.Pixels)+32)
	b = appendInt32(b, fieldChannels, r.Channels)
	b = appendInt32(b, fieldHeight, r.Height)
	b = appendInt32(b, fieldWidth, r.Width)
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Pixels)
	b = appendInt32(b, fieldLabel, r.Label)
	return b, nil
}

func appendInt32(b []byte, num protowire.Number, v int) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	// int32 fields are sign extended to 64 bits on the wire.
	return protowire.AppendVarint(b, uint64(int64(int32(v))))
}

// Unmarshal decodes a Datum. Float data and encoded images are rejected
// since this tool never writes them.
func Unmarshal(b []byte) (types.Record, error) {
	var r types.Record
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, errors.Wrap(protowire.ParseError(n), "tag")
		}
		b = b[n:]

		switch {
		case num == fieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return r, errors.Wrap(protowire.ParseError(n), "data")
			}
			r.Pixels = append([]byte(nil), v...)
			b = b[n:]
		case typ == protowire.VarintType && num >= fieldChannels && num <= fieldEncoded:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return r, errors.Wrapf(protowire.ParseError(n), "field %d", num)
			}
			b = b[n:]
			x := int(int32(v))
			switch num {
			case fieldChannels:
				r.Channels = x
			case fieldHeight:
				r.Height = x
			case fieldWidth:
				r.Width = x
			case fieldLabel:
				r.Label = x
			case fieldEncoded:
				if v != 0 {
					return r, errors.New("encoded datum not supported")
				}
			default:
				return r, errors.Errorf("unexpected varint field %d", num)
			}
		case num == fieldFloatData:
			return r, errors.New("float datum not supported")
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return r, errors.Wrapf(protowire.ParseError(n), "field %d", num)
			}
			b = b[n:]
		}
	}
	return r, nil
}
