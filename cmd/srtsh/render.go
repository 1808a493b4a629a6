package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/table"

	"github.com/opd-ai/srtsock"
)

func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	return t
}

// renderHandles lists open handles in creation order.
func renderHandles(handles []srtsock.HandleInfo) string {
	t := newTable(table.Row{"Handle", "Role", "Sender", "Created"})
	for _, h := range handles {
		t.AppendRow(table.Row{
			int32(h.Handle),
			h.Role,
			h.Sender,
			h.Created.Format("2006-01-02 15:04:05"),
		})
	}
	return t.Render()
}

// renderOptions lists the option table.
func renderOptions(opts []srtsock.OptionDescriptor) string {
	t := newTable(table.Row{"ID", "Name", "Kind", "Max len", "Access"})
	for _, d := range opts {
		maxLen := ""
		if d.MaxLen > 0 {
			maxLen = fmt.Sprint(d.MaxLen)
		}
		t.AppendRow(table.Row{int(d.ID), d.Name, d.Kind, maxLen, d.Access})
	}
	return t.Render()
}

// renderEvents lists readiness events.
func renderEvents(events []srtsock.ReadinessEvent) string {
	t := newTable(table.Row{"Handle", "Events"})
	for _, ev := range events {
		t.AppendRow(table.Row{int32(ev.Handle), ev.Events})
	}
	return t.Render()
}

// renderStats shows the three statistics sections side by side.
func renderStats(h srtsock.Handle, s srtsock.StatsSnapshot) string {
	t := newTable(table.Row{"Counter", "Total", "Interval"})
	t.SetTitle("handle %d, socket age %s", int32(h), s.Timestamp)
	c, i := s.Cumulative, s.Interval
	t.AppendRows([]table.Row{
		{"pkt sent", c.PktSent, i.PktSent},
		{"pkt recv", c.PktRecv, i.PktRecv},
		{"pkt snd loss", c.PktSndLoss, i.PktSndLoss},
		{"pkt rcv loss", c.PktRcvLoss, i.PktRcvLoss},
		{"pkt retrans", c.PktRetrans, i.PktRetrans},
		{"pkt rcv retrans", "", i.PktRcvRetrans},
		{"pkt snd drop", c.PktSndDrop, i.PktSndDrop},
		{"pkt rcv drop", c.PktRcvDrop, i.PktRcvDrop},
		{"bytes sent", c.ByteSent, i.ByteSent},
		{"bytes recv", c.ByteRecv, i.ByteRecv},
		{"send rate Mbps", "", fmt.Sprintf("%.3f", i.MbpsSendRate)},
		{"recv rate Mbps", "", fmt.Sprintf("%.3f", i.MbpsRecvRate)},
	})
	g := s.Instant
	t.AppendFooter(table.Row{"rtt ms", fmt.Sprintf("%.2f", g.MsRTT), ""})
	t.AppendFooter(table.Row{"bandwidth Mbps", fmt.Sprintf("%.3f", g.MbpsBandwidth), ""})
	t.AppendFooter(table.Row{"flow window", g.PktFlowWindow, ""})
	return t.Render()
}
