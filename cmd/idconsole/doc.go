// Command idconsole is the terminal client for the audio identification
// backend: sign in, upload audio, follow jobs live, and manage API tokens and
// users.
package main
