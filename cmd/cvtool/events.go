package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"talent-bridge-go/internal/storage"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "订阅档案事件exchange并打印收到的消息",
	RunE:  runEvents,
}

var (
	eventsQueue      string
	eventsRoutingKey string
)

func init() {
	eventsCmd.Flags().StringVar(&eventsQueue, "queue", "cvtool.debug", "调试用队列名")
	eventsCmd.Flags().StringVar(&eventsRoutingKey, "routing-key", "#", "绑定的routing key")

	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mq, err := storage.NewRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer mq.Close()

	exchange := cfg.RabbitMQ.ProfileEventsExchange
	if err := mq.EnsureExchange(exchange, "topic", true); err != nil {
		return err
	}
	if err := mq.EnsureQueue(eventsQueue, false); err != nil {
		return err
	}
	if err := mq.BindQueue(eventsQueue, exchange, eventsRoutingKey); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stop, err := mq.StartConsumer(eventsQueue, 10, func(routingKey string, body []byte) bool {
		fmt.Fprintf(out, "[%s] %s\n", routingKey, body)
		return true
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "正在监听 %s (%s)，按 Ctrl+C 退出\n", exchange, eventsRoutingKey)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	close(stop)
	return nil
}
