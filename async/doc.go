// Package async runs facade primitives on a single dedicated worker.
//
// SRT engines such as libsrt expect blocking calls from one thread, and
// hosts that drive the facade from many goroutines still want strict call
// ordering. Client owns one goroutine locked to an OS thread; every method
// enqueues its primitive, the worker runs the queue in FIFO order, and the
// result comes back over a channel.
//
// # Timeouts
//
// Callers stop waiting when their context ends or, when the context has no
// deadline, after Client.Timeout (DefaultTimeout). Abandoning a wait does
// not cancel the primitive: it still runs on the worker and its result is
// dropped. Accept waits without the default timeout because a listener can
// legitimately wait forever.
//
// Because the worker is single, a blocking Accept or Read holds up every
// call queued behind it. Poll with EpollUWait first, then call, as with the
// synchronous facade.
//
// # Example
//
//	client := async.NewClient(srt)
//	defer client.Close()
//
//	h, err := client.CreateSocket(ctx, false)
//	if err != nil {
//	    return err
//	}
//	if err := client.Bind(ctx, h, "0.0.0.0", 9000); err != nil {
//	    return err
//	}
package async
