/*
Copyright (c) 2019-2020 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software in
   a product, an acknowledgment in the product documentation would be
   appreciated but is not required.

2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.

3. This notice may not be removed or altered from any source distribution.
*/

package ram

import (
	"testing"

	"github.com/andreas-jonsson/virtualgba/emulator/memory"
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type machine struct {
	bus *memory.Bus
}

func (m *machine) Memory() *memory.Bus {
	return m.bus
}

func (m *machine) GetInterruptController() processor.InterruptController {
	return nil
}

func (m *machine) GetDMAController() processor.DMAController {
	return nil
}

func TestReadWriteAndMirror(t *testing.T) {
	dev := &Device{Base: 0x03000000, Size: 0x8000, Cycles: 1}
	bus := memory.NewBus()
	require.NoError(t, dev.Install(&machine{bus: bus}))

	bus.WriteByte(0x03000123, 0x42)
	v, _ := bus.ReadByte(0x03000123)
	assert.Equal(t, byte(0x42), v)

	// The block mirrors through the whole region.
	v, _ = bus.ReadByte(0x03008123)
	assert.Equal(t, byte(0x42), v)
	v, _ = bus.ReadByte(0x03FF8123)
	assert.Equal(t, byte(0x42), v)
}

func TestWindowFolding(t *testing.T) {
	dev := &Device{Base: 0x06000000, Size: 0x18000, Window: 0x20000, Cycles: 1}
	bus := memory.NewBus()
	require.NoError(t, dev.Install(&machine{bus: bus}))

	// The upper 32K of the window lands on the tail of the block.
	bus.WriteByte(0x06010000, 0xAB)
	v, _ := bus.ReadByte(0x06018000)
	assert.Equal(t, byte(0xAB), v)

	bus.WriteByte(0x06000000, 0xCD)
	v, _ = bus.ReadByte(0x06020000)
	assert.Equal(t, byte(0xCD), v, "window itself mirrors through the region")
}

func TestReset(t *testing.T) {
	dev := &Device{Base: 0x02000000, Size: 0x1000, Cycles: 3}
	bus := memory.NewBus()
	require.NoError(t, dev.Install(&machine{bus: bus}))

	bus.WriteByte(0x02000000, 0xFF)
	dev.Reset()
	v, _ := bus.ReadByte(0x02000000)
	assert.Zero(t, v)
}
