// Command herbctl inspects formulas and contribution drafts from the terminal.
package main

func main() {
	Execute()
}
