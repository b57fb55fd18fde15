package cart

import (
	"errors"
	"io"
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// ErrMalformed is returned by Decode for data that is not a JSON object of
// product id to whole-number quantity.
var ErrMalformed = errors.New("cart: malformed cart data")

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode serializes items as a JSON object, keys in cart order
func Encode(items []Item) ([]byte, error) {
	stream := codec.BorrowStream(nil)
	defer codec.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, item := range items {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(item.ProductID)
		stream.WriteInt(item.Quantity)
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// Decode parses data produced by Encode (or by the storefront script) back into
// ordered items. The data must hold exactly one object. Non-positive
// quantities are dropped. A repeated key keeps its first position and its
// last value.
func Decode(data []byte) ([]Item, error) {
	iter := codec.BorrowIterator(data)
	defer codec.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, ErrMalformed
	}

	var (
		items = []Item{}
		index = make(map[string]int)
		bad   bool
	)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		if it.WhatIsNext() != jsoniter.NumberValue {
			bad = true
			return false
		}
		f, err := strconv.ParseFloat(string(it.ReadNumber()), 64)
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			bad = true
			return false
		}
		quantity := int(f)

		if i, ok := index[key]; ok {
			items[i].Quantity = quantity
			return true
		}
		index[key] = len(items)
		items = append(items, Item{ProductID: key, Quantity: quantity})
		return true
	})
	if bad || iter.Error != nil {
		return nil, ErrMalformed
	}
	// only whitespace may follow the object
	if next := iter.WhatIsNext(); next != jsoniter.InvalidValue || !errors.Is(iter.Error, io.EOF) {
		return nil, ErrMalformed
	}

	kept := items[:0]
	for _, item := range items {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	return kept, nil
}
