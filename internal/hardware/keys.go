package hardware

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"cluster-service/internal/logger"
)

const evKey = 0x01

// keyReader maintains a level cache for inputs routed through the gpio-keys
// input device. The monitor goroutine only updates the cache; consumers poll
// it from the UI thread, so no input event ever calls into panel code.
type keyReader struct {
	logger *logger.Logger
	file   *os.File

	mu       sync.RWMutex
	active   map[uint16]bool
	stopChan chan struct{}
}

func newKeyReader(devicePath string, log *logger.Logger) (*keyReader, error) {
	file, err := os.OpenFile(devicePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open input device %s: %w", devicePath, err)
	}

	k := &keyReader{
		logger:   log,
		file:     file,
		active:   make(map[uint16]bool),
		stopChan: make(chan struct{}),
	}

	if err := k.seedState(); err != nil {
		k.logger.Warnf("Failed to read initial key states: %v", err)
	}

	go k.monitor()
	return k, nil
}

// seedState queries the kernel's key-state bitmap so levels held active
// across a restart are observed before any event arrives.
func (k *keyReader) seedState() error {
	buffer := make([]byte, 128)
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		k.file.Fd(),
		uintptr(0x80804518), // EVIOCGKEY(len)
		uintptr(unsafe.Pointer(&buffer[0])),
	)
	if errno != 0 {
		return fmt.Errorf("EVIOCGKEY ioctl failed: %v", errno)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for code := 0; code < len(buffer)*8; code++ {
		if buffer[code/8]&(1<<(code%8)) != 0 {
			k.active[uint16(code)] = true
			k.logger.Debugf("Initial state: keycode %d active", code)
		}
	}
	return nil
}

func (k *keyReader) monitor() {
	defer k.file.Close()

	buffer := make([]byte, 16)
	for {
		select {
		case <-k.stopChan:
			k.logger.Debugf("Stopping input monitoring")
			return
		default:
			n, err := k.file.Read(buffer)
			if err != nil {
				select {
				case <-k.stopChan:
					return
				default:
				}
				k.logger.Warnf("Error reading input: %v", err)
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if n != len(buffer) {
				k.logger.Warnf("Incomplete read: got %d bytes, expected %d", n, len(buffer))
				continue
			}

			typ := binary.LittleEndian.Uint16(buffer[8:10])
			code := binary.LittleEndian.Uint16(buffer[10:12])
			val := int32(binary.LittleEndian.Uint32(buffer[12:16]))

			// Value 2 is a key repeat; levels do not change.
			if typ != evKey || val > 1 {
				continue
			}

			k.mu.Lock()
			if val == 0 {
				delete(k.active, code)
			} else {
				k.active[code] = true
			}
			k.mu.Unlock()
		}
	}
}

func (k *keyReader) isActive(code uint16) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.active[code]
}

func (k *keyReader) close() {
	close(k.stopChan)
}
