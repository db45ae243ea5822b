// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tm1637 drives 4 digit 7-segment display modules.
//
// Two wirings are supported. New drives a Titan Micro TM1637 controller on
// its 2 wire CLK/DIO bus. Both lines are open drain: they are either
// released, and pulled high by the module's resistors, or driven low. They
// are never driven high.
//
// NewDiscrete drives bare digits through a 74HC595 shift register on the
// segment lines and one enable pin per digit. Only one digit is lit at a
// time so Update, or Run, must be called continuously to keep the image
// visible.
//
// The content is built with package segment, or with the Show* helpers.
//
// # Datasheet
//
// https://www.mcielectronics.cl/website_MCI/static/documents/Datasheet_TM1637.pdf
package tm1637
