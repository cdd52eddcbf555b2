package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotForTest(id string, price int64) BookSnapshot {
	return BookSnapshot{
		BookID: id,
		Title:  "Test Book " + id,
		Author: "Test Author",
		Price:  price,
	}
}

func TestCart_Add(t *testing.T) {
	cart := NewCart("a@x.com")

	lines := cart.Add(snapshotForTest("book-1", 650))
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)

	// Adding the same book again increments the existing line.
	lines = cart.Add(snapshotForTest("book-1", 650))
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	// A different book gets its own line.
	lines = cart.Add(snapshotForTest("book-2", 720))
	require.Len(t, lines, 2)
	assert.Equal(t, "book-2", lines[1].Book.BookID)
}

func TestCart_SetQuantity(t *testing.T) {
	cart := NewCart("a@x.com")
	cart.Add(snapshotForTest("book-1", 650))

	lines := cart.SetQuantity("book-1", 5)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)

	// Zero or negative removes the line.
	lines = cart.SetQuantity("book-1", 0)
	assert.Empty(t, lines)

	cart.Add(snapshotForTest("book-1", 650))
	lines = cart.SetQuantity("book-1", -2)
	assert.Empty(t, lines)

	// Setting quantity for an absent book is a no-op.
	lines = cart.SetQuantity("book-99", 3)
	assert.Empty(t, lines)
}

func TestCart_Remove(t *testing.T) {
	cart := NewCart("a@x.com")
	cart.Add(snapshotForTest("book-1", 650))
	cart.Add(snapshotForTest("book-2", 720))

	lines := cart.Remove("book-1")
	require.Len(t, lines, 1)
	assert.Equal(t, "book-2", lines[0].Book.BookID)

	// Removing an absent book is a no-op.
	lines = cart.Remove("book-1")
	assert.Len(t, lines, 1)
}

func TestCart_Clear(t *testing.T) {
	cart := NewCart("a@x.com")
	cart.Add(snapshotForTest("book-1", 650))
	cart.Add(snapshotForTest("book-2", 720))

	lines := cart.Clear()
	assert.Empty(t, lines)
	assert.True(t, cart.IsEmpty())
}

func TestCart_Total(t *testing.T) {
	cart := NewCart("a@x.com")
	assert.Equal(t, int64(0), cart.Total())

	cart.Add(snapshotForTest("book-1", 650))
	cart.Add(snapshotForTest("book-1", 650))
	cart.Add(snapshotForTest("book-2", 720))

	// 2*650 + 1*720
	assert.Equal(t, int64(2020), cart.Total())
	assert.Equal(t, 3, cart.ItemCount())
}
