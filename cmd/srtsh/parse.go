package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opd-ai/srtsock"
)

// parseEvents turns "in,out,err,et" into an event mask.
func parseEvents(s string) (srtsock.EpollFlag, error) {
	var flags srtsock.EpollFlag
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "in":
			flags |= srtsock.EpollIn
		case "out":
			flags |= srtsock.EpollOut
		case "err":
			flags |= srtsock.EpollErr
		case "et":
			flags |= srtsock.EpollET
		case "":
		default:
			return 0, fmt.Errorf("unknown event %q (want in, out, err, et)", part)
		}
	}
	if flags == 0 {
		return 0, fmt.Errorf("no events in %q", s)
	}
	return flags, nil
}

// parseOptionValue converts text to a value of the descriptor's kind.
func parseOptionValue(d srtsock.OptionDescriptor, raw string) (srtsock.OptionValue, error) {
	switch d.Kind {
	case srtsock.KindInt32:
		v, err := strconv.ParseInt(raw, 0, 32)
		if err != nil {
			return srtsock.OptionValue{}, fmt.Errorf("%s wants a 32-bit integer: %w", d.Name, err)
		}
		return srtsock.IntValue(int32(v)), nil
	case srtsock.KindInt64:
		v, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return srtsock.OptionValue{}, fmt.Errorf("%s wants an integer: %w", d.Name, err)
		}
		return srtsock.Int64Value(v), nil
	case srtsock.KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return srtsock.OptionValue{}, fmt.Errorf("%s wants true or false: %w", d.Name, err)
		}
		return srtsock.BoolValue(v), nil
	default:
		return srtsock.TextValue(raw), nil
	}
}

// lookupOption finds an option by name or numeric id.
func lookupOption(key string) (srtsock.OptionDescriptor, error) {
	if d, ok := srtsock.LookupOptionName(strings.ToLower(key)); ok {
		return d, nil
	}
	if id, err := strconv.Atoi(key); err == nil {
		if d, ok := srtsock.LookupOption(srtsock.SockOpt(id)); ok {
			return d, nil
		}
	}
	return srtsock.OptionDescriptor{}, fmt.Errorf("unknown option %q, see 'options'", key)
}
