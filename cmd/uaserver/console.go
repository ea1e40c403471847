package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/BogdanYarotsky/opcua/pkg/server"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// console is the interactive operator loop. It drives the message handler
// the way a connected client would and prints the publish driver's output.
type console struct {
	handler *server.MessageHandler
	session *server.SessionState
	space   *server.StaticAddressSpace
	rl      *readline.Instance

	// token is the authentication token of the open session, zero before
	// the session command runs.
	token ua.NodeID

	// nextClientHandle numbers the monitored items the console creates.
	nextClientHandle uint32

	// nextRequestHandle numbers outgoing requests.
	nextRequestHandle uint32
}

func newConsole(handler *server.MessageHandler, session *server.SessionState, space *server.StaticAddressSpace) (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ua> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &console{
		handler: handler,
		session: session,
		space:   space,
		rl:      rl,
	}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (c *console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// ShowPublish prints a deferred publish response. Called by the publish
// driver's sink goroutine.
func (c *console) ShowPublish(resp *ua.PublishResponse) {
	msg := &resp.NotificationMessage
	if msg.IsKeepAlive() {
		fmt.Fprintf(c.rl.Stdout(), "[PUBLISH] subscription %d keep-alive seq=%d\n",
			resp.SubscriptionID, msg.SequenceNumber)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "[PUBLISH] subscription %d seq=%d more=%v\n",
		resp.SubscriptionID, msg.SequenceNumber, resp.MoreNotifications)
	for _, dcn := range msg.NotificationData {
		for _, item := range dcn.MonitoredItems {
			fmt.Fprintf(c.rl.Stdout(), "  handle=%d value=%v status=%s\n",
				item.ClientHandle, item.Value.Value, item.Value.Status)
		}
	}
}

// Run reads commands until the context ends or the operator quits.
func (c *console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "session":
			c.cmdSession()

		case "close":
			c.cmdClose(args)

		case "sub":
			c.cmdSubscribe(args)

		case "subs":
			c.cmdSubs()

		case "unsub":
			c.cmdUnsubscribe(args)

		case "mode":
			c.cmdMode(args)

		case "monitor", "m":
			c.cmdMonitor(args)

		case "publish", "p":
			c.cmdPublish(args)

		case "republish":
			c.cmdRepublish(args)

		case "write", "w":
			c.cmdWrite(args)

		case "read", "r":
			c.cmdRead(args)

		case "browse", "b":
			c.cmdBrowse(args)

		case "status":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
OPC UA Server Commands:
  Session:
    session                  - Create and activate a session
    close [keep]             - Close the session ('keep' preserves subscriptions)

  Subscriptions:
    sub [keepalive lifetime] - Create a subscription (counts in ticks)
    subs                     - List subscriptions
    unsub <sub-id>           - Delete a subscription
    mode <sub-id> on|off     - Enable or disable publishing

  Monitored Items:
    monitor <sub-id> <node>  - Monitor a variable, e.g. monitor 1 Temperature

  Publishing:
    publish [ack-seq...]     - Queue a publish request, acknowledging sequences
    republish <sub-id> <seq> - Retransmit an unacknowledged message

  Address Space:
    read <node>              - Read a variable
    write <node> <value>     - Write a variable (feeds monitored items)
    browse [node]            - Browse children (default: Objects)

  General:
    status                   - Show session status
    help                     - Show this help
    quit                     - Exit`)
}

func (c *console) header() ua.RequestHeader {
	c.nextRequestHandle++
	return ua.RequestHeader{
		AuthenticationToken: c.token,
		Timestamp:           time.Now(),
		RequestHandle:       c.nextRequestHandle,
	}
}

func (c *console) printErr(err error) {
	fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
}

func (c *console) cmdSession() {
	resp, err := c.handler.Handle(&ua.CreateSessionRequest{
		RequestHeader:           c.header(),
		SessionName:             "console",
		RequestedSessionTimeout: 60_000,
	})
	if err != nil {
		c.printErr(err)
		return
	}
	created := resp.(*ua.CreateSessionResponse)
	c.token = created.AuthenticationToken

	if _, err := c.handler.Handle(&ua.ActivateSessionRequest{RequestHeader: c.header()}); err != nil {
		c.printErr(err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Session %s active (timeout %.0fms)\n",
		created.SessionID, created.RevisedSessionTimeout)
}

func (c *console) cmdClose(args []string) {
	deleteSubs := true
	if len(args) > 0 && args[0] == "keep" {
		deleteSubs = false
	}
	_, err := c.handler.Handle(&ua.CloseSessionRequest{
		RequestHeader:       c.header(),
		DeleteSubscriptions: deleteSubs,
	})
	if err != nil {
		c.printErr(err)
		return
	}
	c.token = ua.NodeID{}
	fmt.Fprintln(c.rl.Stdout(), "Session closed")
}

func (c *console) cmdSubscribe(args []string) {
	keepAlive, lifetime := uint32(5), uint32(30)
	if len(args) >= 1 {
		if v, err := strconv.ParseUint(args[0], 10, 32); err == nil {
			keepAlive = uint32(v)
		}
	}
	if len(args) >= 2 {
		if v, err := strconv.ParseUint(args[1], 10, 32); err == nil {
			lifetime = uint32(v)
		}
	}

	resp, err := c.handler.Handle(&ua.CreateSubscriptionRequest{
		RequestHeader:               c.header(),
		RequestedPublishingInterval: 500,
		RequestedLifetimeCount:      lifetime,
		RequestedMaxKeepAliveCount:  keepAlive,
		PublishingEnabled:           true,
	})
	if err != nil {
		c.printErr(err)
		return
	}
	created := resp.(*ua.CreateSubscriptionResponse)
	fmt.Fprintf(c.rl.Stdout(), "Subscription %d created (keepalive=%d lifetime=%d)\n",
		created.SubscriptionID, created.RevisedMaxKeepAliveCount, created.RevisedLifetimeCount)
}

func (c *console) cmdSubs() {
	ids := c.session.SubscriptionIDs()
	if ids == nil {
		fmt.Fprintln(c.rl.Stdout(), "No subscriptions")
		return
	}
	for _, id := range ids {
		fmt.Fprintf(c.rl.Stdout(), "  subscription %d\n", id)
	}
}

func (c *console) cmdUnsubscribe(args []string) {
	id, ok := parseID(args, 0)
	if !ok {
		fmt.Fprintln(c.rl.Stdout(), "Usage: unsub <sub-id>")
		return
	}
	resp, err := c.handler.Handle(&ua.DeleteSubscriptionsRequest{
		RequestHeader:   c.header(),
		SubscriptionIDs: []uint32{id},
	})
	if err != nil {
		c.printErr(err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Delete result: %s\n", resp.(*ua.DeleteSubscriptionsResponse).Results[0])
}

func (c *console) cmdMode(args []string) {
	id, ok := parseID(args, 0)
	if !ok || len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: mode <sub-id> on|off")
		return
	}
	resp, err := c.handler.Handle(&ua.SetPublishingModeRequest{
		RequestHeader:     c.header(),
		PublishingEnabled: args[1] == "on",
		SubscriptionIDs:   []uint32{id},
	})
	if err != nil {
		c.printErr(err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Mode result: %s\n", resp.(*ua.SetPublishingModeResponse).Results[0])
}

func (c *console) cmdMonitor(args []string) {
	id, ok := parseID(args, 0)
	if !ok || len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: monitor <sub-id> <node>")
		return
	}
	c.nextClientHandle++

	resp, err := c.handler.Handle(&ua.CreateMonitoredItemsRequest{
		RequestHeader:  c.header(),
		SubscriptionID: id,
		ItemsToCreate: []ua.MonitoredItemCreateRequest{{
			ItemToMonitor: ua.ReadValueID{
				NodeID:      ua.NewNodeID(2, args[1]),
				AttributeID: ua.AttributeValue,
			},
			MonitoringMode: ua.MonitoringModeReporting,
			RequestedParameters: ua.MonitoringParameters{
				ClientHandle:  c.nextClientHandle,
				QueueSize:     10,
				DiscardOldest: true,
			},
		}},
	})
	if err != nil {
		c.printErr(err)
		return
	}
	result := resp.(*ua.CreateMonitoredItemsResponse).Results[0]
	if result.StatusCode.IsBad() {
		fmt.Fprintf(c.rl.Stdout(), "Monitor failed: %s\n", result.StatusCode)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Monitoring %s (item %d, handle %d)\n",
		args[1], result.MonitoredItemID, c.nextClientHandle)
}

func (c *console) cmdPublish(args []string) {
	var acks []ua.SubscriptionAcknowledgement
	for i := 0; i+1 < len(args); i += 2 {
		sub, err1 := strconv.ParseUint(args[i], 10, 32)
		seq, err2 := strconv.ParseUint(args[i+1], 10, 32)
		if err1 != nil || err2 != nil {
			fmt.Fprintln(c.rl.Stdout(), "Usage: publish [sub-id seq]...")
			return
		}
		acks = append(acks, ua.SubscriptionAcknowledgement{
			SubscriptionID: uint32(sub),
			SequenceNumber: uint32(seq),
		})
	}

	if _, err := c.handler.Handle(&ua.PublishRequest{
		RequestHeader:                c.header(),
		SubscriptionAcknowledgements: acks,
	}); err != nil {
		c.printErr(err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Publish queued (%d outstanding)\n", c.session.PendingPublishCount())
}

func (c *console) cmdRepublish(args []string) {
	id, ok := parseID(args, 0)
	seq, ok2 := parseID(args, 1)
	if !ok || !ok2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: republish <sub-id> <seq>")
		return
	}
	resp, err := c.handler.Handle(&ua.RepublishRequest{
		RequestHeader:            c.header(),
		SubscriptionID:           id,
		RetransmitSequenceNumber: seq,
	})
	if err != nil {
		c.printErr(err)
		return
	}
	msg := resp.(*ua.RepublishResponse).NotificationMessage
	fmt.Fprintf(c.rl.Stdout(), "Retransmitted seq=%d (keep-alive=%v)\n",
		msg.SequenceNumber, msg.IsKeepAlive())
}

func (c *console) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: write <node> <value>")
		return
	}
	err := c.space.WriteValue(ua.NewNodeID(2, args[0]), ua.DataValue{
		Value:           parseValue(args[1]),
		Status:          ua.Good,
		SourceTimestamp: time.Now(),
	})
	if err != nil {
		c.printErr(err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "%s = %s\n", args[0], args[1])
}

func (c *console) cmdRead(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: read <node>")
		return
	}
	value, err := c.space.ReadValue(ua.NewNodeID(2, args[0]))
	if err != nil {
		c.printErr(err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "%s = %v (status=%s)\n", args[0], value.Value, value.Status)
}

func (c *console) cmdBrowse(args []string) {
	node := ua.NewNodeID(0, "Objects")
	if len(args) > 0 {
		node = ua.NewNodeID(2, args[0])
	}
	resp, err := c.handler.Handle(&ua.BrowseRequest{
		RequestHeader: c.header(),
		NodesToBrowse: []ua.BrowseDescription{{
			NodeID:          node,
			BrowseDirection: ua.BrowseDirectionForward,
		}},
	})
	if err != nil {
		c.printErr(err)
		return
	}
	result := resp.(*ua.BrowseResponse).Results[0]
	if result.StatusCode.IsBad() {
		fmt.Fprintf(c.rl.Stdout(), "Browse failed: %s\n", result.StatusCode)
		return
	}
	for _, ref := range result.References {
		fmt.Fprintf(c.rl.Stdout(), "  %-12s %s\n", ref.NodeClass, ref.BrowseName)
	}
}

func (c *console) cmdStatus() {
	if c.token == (ua.NodeID{}) {
		fmt.Fprintln(c.rl.Stdout(), "No session (run 'session' first)")
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Session %s\n", c.session.SessionID())
	fmt.Fprintf(c.rl.Stdout(), "  subscriptions: %v\n", c.session.SubscriptionIDs())
	fmt.Fprintf(c.rl.Stdout(), "  outstanding publish requests: %d\n", c.session.PendingPublishCount())
}

func parseID(args []string, i int) (uint32, bool) {
	if i >= len(args) {
		return 0, false
	}
	v, err := strconv.ParseUint(args[i], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// parseValue guesses the value type: int, then float, then bool, falling
// back to the raw string.
func parseValue(s string) any {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return s
}
