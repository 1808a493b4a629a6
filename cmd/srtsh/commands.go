package main

import (
	"fmt"
	"strings"

	"github.com/desertbit/grumble"

	"github.com/opd-ai/srtsock"
)

// defaultReadSize fits any single message.
const defaultReadSize = 1500

func handleArg(a *grumble.Args) {
	a.Int("handle", "socket handle")
}

func handleOf(c *grumble.Context) srtsock.Handle {
	return srtsock.Handle(c.Args.Int("handle"))
}

// AddCommands registers one command per facade primitive.
func AddCommands(app *grumble.App) {
	app.AddCommand(&grumble.Command{
		Name:    "socket",
		Aliases: []string{"create"},
		Help:    "create a socket and print its handle",
		Flags: func(f *grumble.Flags) {
			f.Bool("s", "sender", false, "mark the socket as a sender")
		},
		Run: func(c *grumble.Context) error {
			h, err := srt.CreateSocket(c.Flags.Bool("sender"))
			if err != nil {
				return err
			}
			c.App.Println(int32(h))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "bind",
		Help: "bind a socket to a local IPv4 address and port",
		Args: func(a *grumble.Args) {
			handleArg(a)
			a.String("address", "local IPv4 address")
			a.Int("port", "local port, 0 picks one", grumble.Default(0))
		},
		Run: func(c *grumble.Context) error {
			return srt.Bind(handleOf(c), c.Args.String("address"), c.Args.Int("port"))
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "listen",
		Help: "put a bound socket into listening state",
		Args: func(a *grumble.Args) {
			handleArg(a)
			a.Int("backlog", "pending connection limit", grumble.Default(srtsock.ListenBacklog))
		},
		Run: func(c *grumble.Context) error {
			return srt.Listen(handleOf(c), c.Args.Int("backlog"))
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "connect",
		Help: "connect a socket to a remote listener",
		Args: func(a *grumble.Args) {
			handleArg(a)
			a.String("address", "remote IPv4 address")
			a.Int("port", "remote port")
		},
		Run: func(c *grumble.Context) error {
			return srt.Connect(handleOf(c), c.Args.String("address"), c.Args.Int("port"))
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "accept",
		Help: "accept the next connection on a listener and print its handle",
		Args: handleArg,
		Run: func(c *grumble.Context) error {
			h, err := srt.Accept(handleOf(c))
			if err != nil {
				return err
			}
			c.App.Println(int32(h))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name:    "close",
		Aliases: []string{"rm"},
		Help:    "close sockets",
		Args: func(a *grumble.Args) {
			a.StringList("handles", "socket handles")
		},
		Run: func(c *grumble.Context) error {
			for _, raw := range c.Args.StringList("handles") {
				var h int32
				if _, err := fmt.Sscan(raw, &h); err != nil {
					return fmt.Errorf("bad handle %q", raw)
				}
				if err := srt.Close(srtsock.Handle(h)); err != nil {
					return err
				}
			}
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "read",
		Help: "read one message",
		Args: func(a *grumble.Args) {
			handleArg(a)
			a.Int("max", "maximum bytes", grumble.Default(defaultReadSize))
		},
		Run: func(c *grumble.Context) error {
			data, err := srt.Read(handleOf(c), c.Args.Int("max"))
			if err != nil {
				return err
			}
			c.App.Printf("%d bytes: %q\n", len(data), data)
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "write",
		Help: "write text, split into payload-sized messages",
		Args: func(a *grumble.Args) {
			handleArg(a)
			a.StringList("text", "words to send, joined by spaces")
		},
		Run: func(c *grumble.Context) error {
			text := strings.Join(c.Args.StringList("text"), " ")
			n, err := srt.WriteAll(handleOf(c), []byte(text))
			if err != nil {
				return err
			}
			c.App.Printf("%d bytes written\n", n)
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "setopt",
		Help: "set a socket option by name or id",
		Args: func(a *grumble.Args) {
			handleArg(a)
			a.String("option", "option name or id")
			a.String("value", "new value")
		},
		Run: func(c *grumble.Context) error {
			d, err := lookupOption(c.Args.String("option"))
			if err != nil {
				return err
			}
			v, err := parseOptionValue(d, c.Args.String("value"))
			if err != nil {
				return err
			}
			return srt.SetSockOpt(handleOf(c), d.ID, v)
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "getopt",
		Help: "read a socket option by name or id",
		Args: func(a *grumble.Args) {
			handleArg(a)
			a.String("option", "option name or id")
		},
		Run: func(c *grumble.Context) error {
			d, err := lookupOption(c.Args.String("option"))
			if err != nil {
				return err
			}
			v, err := srt.GetSockOpt(handleOf(c), d.ID)
			if err != nil {
				return err
			}
			c.App.Printf("%s = %s\n", d.Name, v)
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "state",
		Help: "print a socket's status",
		Args: handleArg,
		Run: func(c *grumble.Context) error {
			st, err := srt.GetSockState(handleOf(c))
			if err != nil {
				return err
			}
			c.App.Println(st)
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "addr",
		Help: "print local and peer addresses",
		Args: handleArg,
		Run: func(c *grumble.Context) error {
			h := handleOf(c)
			local, err := srt.LocalAddr(h)
			if err != nil {
				return err
			}
			c.App.Printf("local %s\n", local)
			if peer, err := srt.PeerAddr(h); err == nil {
				c.App.Printf("peer  %s\n", peer)
			}
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "stats",
		Help: "show socket statistics",
		Flags: func(f *grumble.Flags) {
			f.Bool("c", "clear", false, "reset interval counters after reading")
		},
		Args: handleArg,
		Run: func(c *grumble.Context) error {
			h := handleOf(c)
			snap, err := srt.Stats(h, c.Flags.Bool("clear"))
			if err != nil {
				return err
			}
			c.App.Println(renderStats(h, snap))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "loglevel",
		Help: "set the engine log level (0-7)",
		Args: func(a *grumble.Args) {
			a.Int("level", "syslog level")
		},
		Run: func(c *grumble.Context) error {
			return srt.SetLogLevel(c.Args.Int("level"))
		},
	})

	app.AddCommand(&grumble.Command{
		Name:    "handles",
		Aliases: []string{"ls"},
		Help:    "list open handles",
		Run: func(c *grumble.Context) error {
			handles := srt.Handles()
			if len(handles) == 0 {
				c.App.Println("no open handles")
				return nil
			}
			c.App.Println(renderHandles(handles))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "options",
		Help: "list socket options",
		Run: func(c *grumble.Context) error {
			c.App.Println(renderOptions(srtsock.OptionTable()))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "engines",
		Help: "list registered engines",
		Run: func(c *grumble.Context) error {
			c.App.Println(strings.Join(srtsock.Engines(), "\n"))
			return nil
		},
	})

	addPollCommands(app)
}

func addPollCommands(app *grumble.App) {
	poll := &grumble.Command{
		Name: "poll",
		Help: "readiness groups",
	}
	app.AddCommand(poll)

	groupArg := func(a *grumble.Args) {
		a.Int("group", "poll group id")
	}
	groupOf := func(c *grumble.Context) srtsock.PollGroup {
		return srtsock.PollGroup(c.Args.Int("group"))
	}

	poll.AddCommand(&grumble.Command{
		Name: "create",
		Help: "create a poll group and print its id",
		Run: func(c *grumble.Context) error {
			g, err := srt.EpollCreate()
			if err != nil {
				return err
			}
			c.App.Println(int(g))
			return nil
		},
	})

	poll.AddCommand(&grumble.Command{
		Name: "add",
		Help: "subscribe a socket to a group",
		Args: func(a *grumble.Args) {
			groupArg(a)
			handleArg(a)
			a.String("events", "comma separated: in,out,err,et", grumble.Default("in,err"))
		},
		Run: func(c *grumble.Context) error {
			events, err := parseEvents(c.Args.String("events"))
			if err != nil {
				return err
			}
			return srt.EpollAddUsock(groupOf(c), handleOf(c), events)
		},
	})

	poll.AddCommand(&grumble.Command{
		Name: "remove",
		Help: "unsubscribe a socket from a group",
		Args: func(a *grumble.Args) {
			groupArg(a)
			handleArg(a)
		},
		Run: func(c *grumble.Context) error {
			return srt.EpollRemoveUsock(groupOf(c), handleOf(c))
		},
	})

	poll.AddCommand(&grumble.Command{
		Name: "wait",
		Help: "wait for readiness events",
		Args: func(a *grumble.Args) {
			groupArg(a)
			a.Int("timeout", "milliseconds, -1 waits forever", grumble.Default(1000))
		},
		Run: func(c *grumble.Context) error {
			events, err := srt.EpollUWait(groupOf(c), c.Args.Int("timeout"))
			if err != nil {
				return err
			}
			if len(events) == 0 {
				c.App.Println("timeout")
				return nil
			}
			c.App.Println(renderEvents(events))
			return nil
		},
	})

	poll.AddCommand(&grumble.Command{
		Name: "release",
		Help: "release a poll group",
		Args: groupArg,
		Run: func(c *grumble.Context) error {
			return srt.EpollRelease(groupOf(c))
		},
	})
}
