package sqlinline

const QSelectIntegrationToken = `--sql 3d43fba7-920d-44bb-a638-a8ea890913b6
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql c46515ee-1767-4458-934e-52ea90e4a66e
with incoming as (
    select
        $1::text as provider,
        $2::text as token,
        coalesce($3::jsonb, '{}'::jsonb) as properties
)
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), (select provider from incoming), (select token from incoming), (select properties from incoming), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`

const QDeleteIntegrationToken = `--sql 676607b9-e5d9-4324-8046-26c36223f5a6
delete from integration_tokens
where provider = $1::text;
`
