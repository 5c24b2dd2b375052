package sqlinline

const QInsertGenerationAsset = `--sql 11da1f95-ff2f-495c-a3c9-471b82cbc4db
insert into generation_assets(
  id,
  generation_id,
  kind,
  storage_key,
  url,
  mime,
  bytes,
  scene_index,
  created_at
) values (
  gen_random_uuid(),
  $1::uuid,
  $2::text,
  $3::text,
  $4::text,
  $5::text,
  $6::bigint,
  $7::int,
  now()
) returning id;
`

const QListAssetsByGeneration = `--sql e91f4df1-7c51-42b4-9839-d024c942d9b6
select id, generation_id, kind, storage_key, url, mime, bytes, scene_index, created_at
from generation_assets
where generation_id = $1::uuid
order by scene_index asc, created_at asc;
`
