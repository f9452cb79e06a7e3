/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package main

import "github.com/taomind007/storage-subnet/cmd/console"

func main() {
	console.Execute()
}
