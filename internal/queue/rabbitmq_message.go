package queue

// acknowledger is the part of *amqp.Channel a Message settles through.
type acknowledger interface {
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple, requeue bool) error
}

// Message is a job consumed from RabbitMQ, settled on the channel it arrived on.
type Message struct {
	job     *Job
	tag     uint64
	channel acknowledger
}

var _ Delivery = (*Message)(nil)

func newMessage(job *Job, tag uint64, ch acknowledger) *Message {
	return &Message{job: job, tag: tag, channel: ch}
}

// Job returns the decoded job.
func (m *Message) Job() *Job { return m.job }

// Ack removes the message from the queue.
func (m *Message) Ack() error {
	return m.channel.Ack(m.tag, false)
}

// DeadLetter rejects the message without requeue, which routes it to the DLQ.
func (m *Message) DeadLetter() error {
	return m.channel.Nack(m.tag, false, false)
}
