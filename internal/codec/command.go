package codec

import (
	"bytes"
	"encoding/binary"
	"math"

	"main/internal/schema"
)

// CommandFrameSize is the fixed on-wire size of a trader command.
const CommandFrameSize = 64

const (
	cmdOffMagic      = 0
	cmdOffType       = 4
	cmdOffTimestamp  = 8
	cmdOffNoCheck    = 16
	cmdOffStrategyID = 24
	cmdOffPayload    = 40
)

// EncodeCommand serializes a trader command into a fixed-size frame.
func EncodeCommand(dst []byte, cmd schema.TraderCommand) []byte {
	if cap(dst) < CommandFrameSize {
		dst = make([]byte, CommandFrameSize)
	} else {
		dst = dst[:CommandFrameSize]
		clear(dst)
	}

	binary.LittleEndian.PutUint32(dst[cmdOffMagic:], cmd.Magic)
	binary.LittleEndian.PutUint32(dst[cmdOffType:], uint32(cmd.Type))
	binary.LittleEndian.PutUint64(dst[cmdOffTimestamp:], cmd.TimestampUs)
	if cmd.WithoutCheck {
		dst[cmdOffNoCheck] = 1
	}
	copy(dst[cmdOffStrategyID:cmdOffStrategyID+schema.StrategyIDSize], cmd.StrategyID)

	p := dst[cmdOffPayload:]
	switch cmd.Type {
	case schema.CmdNewOrder:
		req := cmd.OrderReq
		binary.LittleEndian.PutUint32(p[0:4], req.ClientOrderID)
		binary.LittleEndian.PutUint32(p[4:8], req.TickerID)
		p[8] = byte(req.Direction)
		p[9] = byte(req.Offset)
		p[10] = byte(req.Type)
		p[11] = byte(req.Flags)
		binary.LittleEndian.PutUint32(p[12:16], uint32(req.Volume))
		binary.LittleEndian.PutUint64(p[16:24], math.Float64bits(req.Price))
	case schema.CmdCancelOrder:
		binary.LittleEndian.PutUint64(p[0:8], cmd.CancelReq.OrderID)
	case schema.CmdCancelTicker:
		binary.LittleEndian.PutUint32(p[0:4], cmd.CancelTickerReq.TickerID)
	case schema.CmdNotify:
		binary.LittleEndian.PutUint64(p[0:8], cmd.Notification.Signal)
	}

	return dst
}

// DecodeCommand parses a fixed-size trader command frame. It does not
// validate the magic number; the caller decides how to report bad frames.
func DecodeCommand(src []byte) (schema.TraderCommand, bool) {
	if len(src) < CommandFrameSize {
		return schema.TraderCommand{}, false
	}

	cmd := schema.TraderCommand{
		Magic:        binary.LittleEndian.Uint32(src[cmdOffMagic:]),
		Type:         schema.CmdType(binary.LittleEndian.Uint32(src[cmdOffType:])),
		TimestampUs:  binary.LittleEndian.Uint64(src[cmdOffTimestamp:]),
		WithoutCheck: src[cmdOffNoCheck] != 0,
		StrategyID:   decodeStrategyID(src[cmdOffStrategyID : cmdOffStrategyID+schema.StrategyIDSize]),
	}

	p := src[cmdOffPayload:]
	switch cmd.Type {
	case schema.CmdNewOrder:
		cmd.OrderReq = schema.OrderReq{
			ClientOrderID: binary.LittleEndian.Uint32(p[0:4]),
			TickerID:      binary.LittleEndian.Uint32(p[4:8]),
			Direction:     schema.Direction(p[8]),
			Offset:        schema.Offset(p[9]),
			Type:          schema.OrderType(p[10]),
			Flags:         schema.OrderFlag(p[11]),
			Volume:        int32(binary.LittleEndian.Uint32(p[12:16])),
			Price:         math.Float64frombits(binary.LittleEndian.Uint64(p[16:24])),
		}
	case schema.CmdCancelOrder:
		cmd.CancelReq.OrderID = binary.LittleEndian.Uint64(p[0:8])
	case schema.CmdCancelTicker:
		cmd.CancelTickerReq.TickerID = binary.LittleEndian.Uint32(p[0:4])
	case schema.CmdNotify:
		cmd.Notification.Signal = binary.LittleEndian.Uint64(p[0:8])
	}

	return cmd, true
}

func decodeStrategyID(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return string(src)
}
