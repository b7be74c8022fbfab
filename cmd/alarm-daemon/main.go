package main

import "github.com/oshokin/alarmify/cmd/alarm-daemon/cmd"

func main() {
	cmd.Execute()
}
