// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted records. Field order is part of the
// on-disk format; append new fields at the end only.
var (
	IDMUS                = idMUS{}
	CatalogItemMUS       = catalogItemMUS{}
	HistoricalMappingMUS = historicalMappingMUS{}
	QuoteMUS             = quoteMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

type catalogItemMUS struct{}

func (catalogItemMUS) Marshal(v CatalogItem, bs []byte) (n int) {
	n = ord.String.Marshal(v.SKU, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += marshalVector(v.Embedding, bs[n:])
	n += ord.Bool.Marshal(v.Price != nil, bs[n:])
	if v.Price != nil {
		n += raw.Float64.Marshal(*v.Price, bs[n:])
	}
	n += ord.String.Marshal(v.Image, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (catalogItemMUS) Unmarshal(bs []byte) (v CatalogItem, n int, err error) {
	var n1 int
	if v.SKU, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Embedding, n1, err = unmarshalVector(bs[n:]); err != nil {
		return
	}
	n += n1
	var hasPrice bool
	if hasPrice, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if hasPrice {
		var price float64
		if price, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
		v.Price = &price
	}
	if v.Image, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (catalogItemMUS) Size(v CatalogItem) (size int) {
	size = ord.String.Size(v.SKU)
	size += ord.String.Size(v.Name)
	size += sizeVector(v.Embedding)
	size += ord.Bool.Size(v.Price != nil)
	if v.Price != nil {
		size += raw.Float64.Size(*v.Price)
	}
	size += ord.String.Size(v.Image)
	size += sizeTime(v.UpdatedAt)
	return size
}

type historicalMappingMUS struct{}

func (historicalMappingMUS) Marshal(v HistoricalMapping, bs []byte) (n int) {
	n = ord.String.Marshal(v.Requirement, bs)
	n += ord.String.Marshal(v.SKU, bs[n:])
	n += varint.Int.Marshal(v.Frequency, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (historicalMappingMUS) Unmarshal(bs []byte) (v HistoricalMapping, n int, err error) {
	var n1 int
	if v.Requirement, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.SKU, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Frequency, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (historicalMappingMUS) Size(v HistoricalMapping) (size int) {
	size = ord.String.Size(v.Requirement)
	size += ord.String.Size(v.SKU)
	size += varint.Int.Size(v.Frequency)
	size += sizeTime(v.UpdatedAt)
	return size
}

type quoteMUS struct{}

func (quoteMUS) Marshal(v Quote, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.SKU, bs[n:])
	n += ord.String.Marshal(v.Requirement, bs[n:])
	n += ord.String.Marshal(v.Customer, bs[n:])
	n += raw.Float64.Marshal(v.Quantity, bs[n:])
	n += raw.Float64.Marshal(v.Price, bs[n:])
	n += marshalTime(v.QuotedAt, bs[n:])
	return n
}

func (quoteMUS) Unmarshal(bs []byte) (v Quote, n int, err error) {
	var n1 int
	if v.ID, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.SKU, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Requirement, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Customer, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Quantity, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Price, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.QuotedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (quoteMUS) Size(v Quote) (size int) {
	size = IDMUS.Size(v.ID)
	size += ord.String.Size(v.SKU)
	size += ord.String.Size(v.Requirement)
	size += ord.String.Size(v.Customer)
	size += raw.Float64.Size(v.Quantity)
	size += raw.Float64.Size(v.Price)
	size += sizeTime(v.QuotedAt)
	return size
}

// Vectors are a varint length followed by raw little-endian float32 values.

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length*4 > len(bs)-n {
		return nil, n, fmt.Errorf("%w: vector length %d exceeds buffer", ErrCorruptRecord, length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := range v {
		var n1 int
		if v[i], n1, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
			return nil, n, err
		}
		n += n1
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

// Timestamps are stored as Unix microseconds.

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(timeToMicro(t), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if micro == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(timeToMicro(t))
}

func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}
