package cli

var RunWithWriter = run

var ForwardRecipient = forwardRecipient
