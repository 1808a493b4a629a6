package transport

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/flynn/noise"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize = 16
	pskSize  = 32
)

var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

// ErrBadSecret indicates the peers derived different pre-shared keys.
var ErrBadSecret = errors.New("passphrase mismatch")

// derivePSK stretches a passphrase into the Noise pre-shared key.
func derivePSK(passphrase string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, pskSize, sha256.New)
}

func newSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

func newHandshakeState(psk []byte, initiator bool) (*noise.HandshakeState, error) {
	return noise.NewHandshakeState(noise.Config{
		CipherSuite:           cipherSuite,
		Random:                rand.Reader,
		Pattern:               noise.HandshakeNN,
		Initiator:             initiator,
		PresharedKey:          psk,
		PresharedKeyPlacement: 0,
	})
}

// session seals data packets with explicit sequence-number nonces so that
// loss and reordering do not desynchronize the peers.
type session struct {
	send noise.Cipher
	recv noise.Cipher
}

func (s *session) seal(header, plaintext []byte, seq uint32) []byte {
	return s.send.Encrypt(nil, uint64(seq), header, plaintext)
}

func (s *session) open(header, ciphertext []byte, seq uint32) ([]byte, error) {
	return s.recv.Decrypt(nil, uint64(seq), header, ciphertext)
}

// initiator holds the caller side of a pending key exchange.
type initiator struct {
	hs   *noise.HandshakeState
	salt []byte
	msg  []byte
}

// startKeyExchange builds the first handshake message for passphrase.
func startKeyExchange(passphrase string, iterations int) (*initiator, error) {
	salt, err := newSalt()
	if err != nil {
		return nil, err
	}
	hs, err := newHandshakeState(derivePSK(passphrase, salt, iterations), true)
	if err != nil {
		return nil, fmt.Errorf("failed to create handshake state: %w", err)
	}
	msg, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to write handshake message: %w", err)
	}
	return &initiator{hs: hs, salt: salt, msg: msg}, nil
}

// finish consumes the responder's message and yields the caller session.
func (i *initiator) finish(msg []byte) (*session, error) {
	_, cs1, cs2, err := i.hs.ReadMessage(nil, msg)
	if err != nil {
		return nil, ErrBadSecret
	}
	if cs1 == nil || cs2 == nil {
		return nil, errors.New("handshake incomplete")
	}
	return &session{send: cs1.Cipher(), recv: cs2.Cipher()}, nil
}

// respondKeyExchange validates the caller's message against passphrase and
// returns the reply together with the listener-side session.
func respondKeyExchange(passphrase string, salt, msg []byte, iterations int) ([]byte, *session, error) {
	hs, err := newHandshakeState(derivePSK(passphrase, salt, iterations), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create handshake state: %w", err)
	}
	if _, _, _, err := hs.ReadMessage(nil, msg); err != nil {
		return nil, nil, ErrBadSecret
	}
	reply, cs1, cs2, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to write handshake message: %w", err)
	}
	if cs1 == nil || cs2 == nil {
		return nil, nil, errors.New("handshake incomplete")
	}
	return reply, &session{send: cs2.Cipher(), recv: cs1.Cipher()}, nil
}
