package bridge

// dispatch classifies one inbound envelope and routes it. It always runs on
// the loop.
func (b *Bridge) dispatch(text string) {
	env, err := decodeEnvelope(text)
	if err != nil {
		b.logger.Error("bridge: malformed envelope dropped", "err", err)
		return
	}

	if env.IsResponse() {
		b.callbacks.resolve(env.ResponseID, env.ResponseData)
		return
	}

	var reply ReplyFunc
	if env.ExpectsReply() {
		reply = b.replyTo(env.CallbackID)
	}

	handler, ok := b.route(env.HandlerName)
	if !ok {
		b.logger.Warn("bridge: no handler for request",
			"handler", env.HandlerName,
			"callbackId", env.CallbackID,
		)
		if reply != nil {
			reply(errorStatus(notFoundMessage(env.HandlerName)))
		}
		return
	}

	b.invoke(env, handler, reply)
}

func (b *Bridge) route(name string) (Handler, bool) {
	if name != "" {
		return b.handlers.lookup(name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.defaultHandler, b.defaultHandler != nil
}

func notFoundMessage(name string) string {
	if name == "" {
		return "no message handler"
	}
	return "handler not found: " + name
}

// replyTo builds the continuation a handler uses to answer the request
// identified by callbackID.
func (b *Bridge) replyTo(callbackID string) ReplyFunc {
	return func(data any) {
		payload, err := encodePayload(data)
		if err != nil {
			b.logger.Error("bridge: reply payload not encodable", "responseId", callbackID, "err", err)
			payload = errorStatus(err.Error())
		}
		if err := b.send(Envelope{ResponseID: callbackID, ResponseData: payload}, nil); err != nil {
			b.logger.Error("bridge: reply failed", "responseId", callbackID, "err", err)
		}
	}
}

func (b *Bridge) invoke(env Envelope, handler Handler, reply ReplyFunc) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bridge: handler panicked",
				"handler", env.HandlerName,
				"callbackId", env.CallbackID,
				"panic", r,
			)
		}
	}()
	handler(b.ctx, env.Data, reply)
}
