package session

import (
	"olmcore/internal/domain"
	"olmcore/internal/pickle"
	"olmcore/internal/util/memzero"
)

const pickleVersion = 1

// Pickle serializes the session and seals it under key: version, the
// received-message flag, the three establishment public keys, then the
// ratchet state.
func (s *Session) Pickle(key []byte) ([]byte, error) {
	raw := pickle.AppendUint32(nil, pickleVersion)
	raw = pickle.AppendBool(raw, s.receivedMessage)
	raw = pickle.AppendBytes(raw, s.aliceIdentityKey[:])
	raw = pickle.AppendBytes(raw, s.aliceBaseKey[:])
	raw = pickle.AppendBytes(raw, s.bobOneTimeKey[:])
	raw = s.Ratchet.Pickle(raw)

	out, err := pickle.Seal(key, raw)
	memzero.Zero(raw)
	return out, err
}

// Unpickle opens a sealed pickle and rebuilds the session. Unknown schema
// versions and trailing or missing bytes are rejected.
func Unpickle(key, pickled []byte) (*Session, error) {
	raw, err := pickle.Open(key, pickled)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)

	d := pickle.NewDecoder(raw)
	version := d.Uint32()
	if d.Failed() {
		return nil, domain.ErrCorruptedPickle
	}
	if version != pickleVersion {
		return nil, domain.ErrUnknownPickleVersion
	}

	s := &Session{}
	s.receivedMessage = d.Bool()
	d.Read(s.aliceIdentityKey[:])
	d.Read(s.aliceBaseKey[:])
	d.Read(s.bobOneTimeKey[:])
	if err := s.Ratchet.Unpickle(d); err != nil {
		return nil, err
	}
	if d.Failed() || d.Remaining() != 0 {
		s.Clear()
		return nil, domain.ErrCorruptedPickle
	}
	return s, nil
}
