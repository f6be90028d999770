package codec

import (
	"encoding/binary"
	"math"

	"main/internal/schema"
)

// ResponseFrameSize is the fixed on-wire size of an order response.
const ResponseFrameSize = 64

// EncodeResponse serializes an order response into a fixed-size frame.
func EncodeResponse(dst []byte, rsp schema.OrderResponse) []byte {
	if cap(dst) < ResponseFrameSize {
		dst = make([]byte, ResponseFrameSize)
	} else {
		dst = dst[:ResponseFrameSize]
		clear(dst)
	}

	binary.LittleEndian.PutUint32(dst[0:4], rsp.ClientOrderID)
	binary.LittleEndian.PutUint32(dst[4:8], rsp.TickerID)
	binary.LittleEndian.PutUint64(dst[8:16], rsp.OrderID)
	dst[16] = byte(rsp.Direction)
	dst[17] = byte(rsp.Offset)
	if rsp.Completed {
		dst[18] = 1
	}
	binary.LittleEndian.PutUint32(dst[20:24], uint32(rsp.ErrorCode))
	binary.LittleEndian.PutUint32(dst[24:28], uint32(int32(rsp.OriginalVolume)))
	binary.LittleEndian.PutUint32(dst[28:32], uint32(int32(rsp.TradedVolume)))
	binary.LittleEndian.PutUint32(dst[32:36], uint32(int32(rsp.ThisTraded)))
	binary.LittleEndian.PutUint64(dst[40:48], math.Float64bits(rsp.Price))
	binary.LittleEndian.PutUint64(dst[48:56], math.Float64bits(rsp.ThisTradedPrice))

	return dst
}

// DecodeResponse parses a fixed-size order response frame.
func DecodeResponse(src []byte) (schema.OrderResponse, bool) {
	if len(src) < ResponseFrameSize {
		return schema.OrderResponse{}, false
	}

	return schema.OrderResponse{
		ClientOrderID:   binary.LittleEndian.Uint32(src[0:4]),
		TickerID:        binary.LittleEndian.Uint32(src[4:8]),
		OrderID:         binary.LittleEndian.Uint64(src[8:16]),
		Direction:       schema.Direction(src[16]),
		Offset:          schema.Offset(src[17]),
		Completed:       src[18] != 0,
		ErrorCode:       schema.ErrorCode(int32(binary.LittleEndian.Uint32(src[20:24]))),
		OriginalVolume:  int(int32(binary.LittleEndian.Uint32(src[24:28]))),
		TradedVolume:    int(int32(binary.LittleEndian.Uint32(src[28:32]))),
		ThisTraded:      int(int32(binary.LittleEndian.Uint32(src[32:36]))),
		Price:           math.Float64frombits(binary.LittleEndian.Uint64(src[40:48])),
		ThisTradedPrice: math.Float64frombits(binary.LittleEndian.Uint64(src[48:56])),
	}, true
}
