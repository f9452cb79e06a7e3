/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package out

import (
	"fmt"
	"time"
)

const (
	HiBlack = iota + 90
	HiRed
	HiGreen
	HiYellow
	HiBlue
	HiPurple
	HiCyan
	HiWhite
)

const (
	OkPrompt   = "OK"
	WarnPrompt = "!!"
	ErrPrompt  = "XX"
	TipPrompt  = "++"
)

const TimeFormat = "2006-01-02 15:04:05"

func Tip(msg string) {
	fmt.Println(prompt(HiGreen, TipPrompt), fmt.Sprintf("%v %s", time.Now().Format(TimeFormat), msg))
}

func Err(msg string) {
	fmt.Println(prompt(HiRed, ErrPrompt), fmt.Sprintf("%v %s", time.Now().Format(TimeFormat), msg))
}

func Warn(msg string) {
	fmt.Println(prompt(HiYellow, WarnPrompt), fmt.Sprintf("%v %s", time.Now().Format(TimeFormat), msg))
}

func Ok(msg string) {
	fmt.Println(prompt(HiGreen, OkPrompt), fmt.Sprintf("%v %s", time.Now().Format(TimeFormat), msg))
}

func prompt(color int, text string) string {
	return fmt.Sprintf("\x1b[0;%dm%s\x1b[0m", color, text)
}
