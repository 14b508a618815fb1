package synth

import (
	"sync"
	"sync/atomic"
)

type commandKind int32

const (
	cmdNoteOn commandKind = iota
	cmdNoteOff
)

type command struct {
	kind      commandKind
	frequency float64
	duration  float64
	volume    float64
}

// commandRing hands control commands to the audio goroutine without
// locking the consumer side. Producers (the foreground and sequencer
// tick goroutines) are serialized by a mutex; the consumer drains the
// ring lock-free once at the top of each generation call, so a command
// becomes audible at a buffer boundary, never mid-buffer.
//
// The ring never blocks: a push onto a full ring drops the command.
// The capacity is far beyond anything a sequencer tick can enqueue
// between two audio callbacks.
type commandRing struct {
	commands []command
	read     atomic.Uint32
	write    atomic.Uint32
	pushMu   sync.Mutex
}

func newCommandRing(size int) *commandRing {
	if size <= 0 || size&(size-1) != 0 {
		panic("command ring size must be a power of 2")
	}
	return &commandRing{commands: make([]command, size)}
}

func (r *commandRing) push(c command) bool {
	r.pushMu.Lock()
	defer r.pushMu.Unlock()
	write := r.write.Load()
	if write-r.read.Load() == uint32(len(r.commands)) {
		return false
	}
	r.commands[write%uint32(len(r.commands))] = c
	r.write.Store(write + 1)
	return true
}

func (r *commandRing) drain(f func(command)) {
	read := r.read.Load()
	write := r.write.Load()
	for read != write {
		f(r.commands[read%uint32(len(r.commands))])
		read++
	}
	r.read.Store(read)
}
