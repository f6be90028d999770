// Command sendorder is a strategy-side smoke tool: it dials the trading
// core's strategy socket, sends one order command, and prints the
// responses that come back.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/schema"
	"main/pkg/uds"
)

var (
	flagSocket   string
	flagStrategy string
	flagTicker   uint32
	flagSell     bool
	flagClose    bool
	flagMarket   bool
	flagVolume   int32
	flagPrice    float64
	flagWait     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "sendorder",
	Short: "Send one order to the trading core and print the responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return send()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagSocket, "socket", "/tmp/trader.sock", "strategy socket path")
	rootCmd.Flags().StringVar(&flagStrategy, "strategy", "smoke", "strategy id")
	rootCmd.Flags().Uint32Var(&flagTicker, "ticker-id", 1, "instrument ticker id")
	rootCmd.Flags().BoolVar(&flagSell, "sell", false, "sell instead of buy")
	rootCmd.Flags().BoolVar(&flagClose, "close", false, "close instead of open")
	rootCmd.Flags().BoolVar(&flagMarket, "market", false, "market order instead of limit")
	rootCmd.Flags().Int32Var(&flagVolume, "volume", 100, "order volume")
	rootCmd.Flags().Float64Var(&flagPrice, "price", 0, "limit price")
	rootCmd.Flags().DurationVar(&flagWait, "wait", 3*time.Second, "how long to wait for responses")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logs.Errorf("%+v", err)
		os.Exit(1)
	}
}

func send() error {
	client, err := uds.NewClient(flagSocket)
	if err != nil {
		return err
	}
	conn, err := client.Dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	cmd := schema.TraderCommand{
		Magic:       schema.TradingCmdMagic,
		Type:        schema.CmdNewOrder,
		TimestampUs: uint64(time.Now().UnixMicro()),
		StrategyID:  flagStrategy,
		OrderReq: schema.OrderReq{
			ClientOrderID: uint32(os.Getpid()),
			TickerID:      flagTicker,
			Direction:     direction(),
			Offset:        offset(),
			Type:          orderType(),
			Volume:        flagVolume,
			Price:         flagPrice,
		},
	}
	if _, err := conn.Write(codec.EncodeCommand(nil, cmd)); err != nil {
		return err
	}

	_ = conn.SetReadDeadline(time.Now().Add(flagWait))
	frame := make([]byte, codec.ResponseFrameSize)
	for {
		if _, err := io.ReadFull(conn, frame); err != nil {
			return nil // deadline or closed: done printing
		}
		rsp, ok := codec.DecodeResponse(frame)
		if !ok {
			continue
		}
		fmt.Printf("order %d: traded %d/%d (this fill %d@%.4f), completed=%v, error=%s\n",
			rsp.OrderID, rsp.TradedVolume, rsp.OriginalVolume,
			rsp.ThisTraded, rsp.ThisTradedPrice, rsp.Completed, rsp.ErrorCode)
		if rsp.Completed {
			return nil
		}
	}
}

func direction() schema.Direction {
	if flagSell {
		return schema.DirectionSell
	}
	return schema.DirectionBuy
}

func offset() schema.Offset {
	if flagClose {
		return schema.OffsetClose
	}
	return schema.OffsetOpen
}

func orderType() schema.OrderType {
	if flagMarket {
		return schema.OrderTypeMarket
	}
	return schema.OrderTypeLimit
}
