// Command example runs an SRT echo server and client over loopback using
// the net.Conn adapter.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/opd-ai/srtsock"
	srtnet "github.com/opd-ai/srtsock/net"
)

func main() {
	fmt.Println("=== SRT Networking Example ===")

	srt, err := srtsock.New(srtsock.NewOptions())
	if err != nil {
		log.Fatalf("Failed to create SRT instance: %v", err)
	}
	defer srt.Dispose()

	listener, err := srtnet.Listen("127.0.0.1:0", srt)
	if err != nil {
		log.Fatalf("Failed to create listener: %v", err)
	}
	defer listener.Close()

	fmt.Printf("Server listening on: %s\n", listener.Addr())

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if err != io.EOF {
					log.Printf("Accept stopped: %v", err)
				}
				return
			}
			go handleConnection(conn)
		}
	}()

	fmt.Println("\n=== Client Example ===")
	target := fmt.Sprintf("srt://%s?streamid=example", listener.Addr())
	conn, err := srtnet.DialTimeout(target, srt, 3*time.Second)
	if err != nil {
		log.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	fmt.Printf("Connected from %s to %s\n", conn.LocalAddr(), conn.RemoteAddr())

	reader := bufio.NewReader(conn)
	for _, line := range []string{"hello", "srt", "goodbye"} {
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			log.Fatalf("Write failed: %v", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		reply, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("Read failed: %v", err)
		}
		fmt.Printf("Echo: %s", reply)
	}

	stats, err := conn.Stats(false)
	if err == nil {
		fmt.Printf("Sent %d packets, received %d packets, RTT %.2f ms\n",
			stats.Cumulative.PktSent, stats.Cumulative.PktRecv, stats.Instant.MsRTT)
	}
}

func handleConnection(conn net.Conn) {
	defer conn.Close()
	log.Printf("Accepted connection from %s", conn.RemoteAddr())
	if _, err := io.Copy(conn, conn); err != nil {
		log.Printf("Connection %s ended: %v", conn.RemoteAddr(), err)
	}
}
