// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

// QuickCheck is similar to testing/quick.Check, but takes an additional
// list of static items to feed as inputs.
func QuickCheck(t *testing.T, fn interface{}, cfg quick.Config, testcases ...[]interface{}) {
	t.Helper()
	err := quick.Check(fn, &cfg)
	assert.NoError(t, err)
	var setupErr quick.SetupError
	if errors.As(err, &setupErr) {
		return
	}

	fnVal := reflect.ValueOf(fn)
	for i, tc := range testcases {
		if len(tc) != fnVal.Type().NumIn() {
			t.Errorf("static#%d has %d args, but the function takes %d args",
				i, len(tc), fnVal.Type().NumIn())
			continue
		}
		args := make([]reflect.Value, len(tc))
		for j := range args {
			args[j] = reflect.ValueOf(tc[j])
		}
		if !fnVal.Call(args)[0].Bool() {
			in := make([]interface{}, len(args))
			for j, arg := range args {
				in[j] = arg.Interface()
			}
			assert.NoError(t, fmt.Errorf("static%w", &quick.CheckError{
				Count: i + 1,
				In:    in,
			}))
		}
	}
}
